package transcode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranscoder() *Transcoder {
	return New(Config{}, slog.Default())
}

func TestVideoBitrateKbps(t *testing.T) {
	tr := newTestTranscoder()

	tests := []struct {
		name     string
		duration float64
		want     int
	}{
		// floor((18*8*1024*1024/60 - 128*1024)/1024)
		{name: "one minute clip", duration: 60, want: 2329},
		// floor((18*8*1024*1024/120 - 128*1024)/1024)
		{name: "two minute clip", duration: 120, want: 1100},
		{name: "very long input floors at minimum", duration: 10000, want: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.VideoBitrateKbps(tt.duration))
		})
	}
}

func TestParseProbeOutput(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantErr      bool
		wantDuration float64
		wantHeight   int
	}{
		{
			name:         "duration and height present",
			data:         `{"format":{"duration":"93.400000"},"streams":[{"height":1080}]}`,
			wantDuration: 93.4,
			wantHeight:   1080,
		},
		{
			name:         "missing stream info",
			data:         `{"format":{"duration":"12.5"}}`,
			wantDuration: 12.5,
			wantHeight:   0,
		},
		{
			name:         "missing duration",
			data:         `{"format":{},"streams":[{"height":720}]}`,
			wantDuration: 0,
			wantHeight:   720,
		},
		{
			name:    "malformed json",
			data:    `not json`,
			wantErr: true,
		},
		{
			name:    "non-numeric duration",
			data:    `{"format":{"duration":"abc"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseProbeOutput([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantDuration, info.Duration, 0.001)
			assert.Equal(t, tt.wantHeight, info.Height)
		})
	}
}

func TestTranscodeUnderBudgetCopiesUnchanged(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mp4")
	output := filepath.Join(dir, "out.mp4")
	payload := []byte("small fake video payload")
	require.NoError(t, os.WriteFile(input, payload, 0o644))

	tr := newTestTranscoder()
	result, err := tr.Transcode(context.Background(), input, output)
	require.NoError(t, err)

	assert.False(t, result.Compressed)
	assert.Equal(t, result.OriginalMB, result.FinalMB)

	copied, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, payload, copied)

	// Input must be left alone.
	original, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, payload, original)
}

func TestTranscodeMissingInput(t *testing.T) {
	tr := newTestTranscoder()

	_, err := tr.Transcode(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "out.mp4")
	assert.Error(t, err)
}

func TestEncodeArgs(t *testing.T) {
	tr := newTestTranscoder()

	t.Run("downscales above 720p", func(t *testing.T) {
		args := tr.encodeArgs("in.mp4", "out.mp4", 1080, 1500)
		assert.Contains(t, args, "scale=-2:720")
		assert.Contains(t, args, "1500k")
		assert.Contains(t, args, "+faststart")
	})

	t.Run("keeps resolution at or below 720p", func(t *testing.T) {
		args := tr.encodeArgs("in.mp4", "out.mp4", 720, 800)
		assert.NotContains(t, args, "scale=-2:720")
	})
}
