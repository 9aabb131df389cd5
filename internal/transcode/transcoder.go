package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// stderrTailBytes bounds the diagnostic text attached to encode failures.
const stderrTailBytes = 500

// Config holds transcoder settings. Zero values fall back to defaults.
type Config struct {
	FFmpegPath          string
	FFprobePath         string
	MaxSizeMB           float64
	TargetSizeMB        float64
	AudioBitrateKbps    int
	MinVideoBitrateKbps int
	Preset              string
}

func (c Config) withDefaults() Config {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 20
	}
	if c.TargetSizeMB == 0 {
		c.TargetSizeMB = 18
	}
	if c.AudioBitrateKbps == 0 {
		c.AudioBitrateKbps = 128
	}
	if c.MinVideoBitrateKbps == 0 {
		c.MinVideoBitrateKbps = 200
	}
	if c.Preset == "" {
		c.Preset = "fast"
	}
	return c
}

// Result reports what the transcoder did with one input.
type Result struct {
	Compressed bool
	OriginalMB float64
	FinalMB    float64
}

// Transcoder re-encodes videos that exceed the size budget. Inputs are never
// mutated in place; output always lands at the caller-supplied path.
type Transcoder struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a transcoder.
func New(cfg Config, logger *slog.Logger) *Transcoder {
	return &Transcoder{cfg: cfg.withDefaults(), logger: logger}
}

// Transcode copies the input unchanged when it fits the size budget,
// otherwise re-encodes it with a bitrate computed from the target size
// and the probed duration, downscaling to 720p when taller.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	originalMB, err := fileSizeMB(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to measure input: %w", err)
	}

	if originalMB <= t.cfg.MaxSizeMB {
		if err := copyFile(inputPath, outputPath); err != nil {
			return nil, fmt.Errorf("failed to copy input: %w", err)
		}
		return &Result{Compressed: false, OriginalMB: originalMB, FinalMB: originalMB}, nil
	}

	t.logger.Info("Compressing video",
		slog.Float64("original_mb", originalMB),
		slog.Float64("max_mb", t.cfg.MaxSizeMB),
	)

	info, err := t.probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("probe reported no duration for %s", inputPath)
	}

	bitrate := t.VideoBitrateKbps(info.Duration)
	if err := t.runFFmpeg(ctx, t.encodeArgs(inputPath, outputPath, info.Height, bitrate)); err != nil {
		return nil, err
	}

	finalMB, err := fileSizeMB(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to measure output: %w", err)
	}

	t.logger.Info("Compression complete",
		slog.Float64("original_mb", originalMB),
		slog.Float64("final_mb", finalMB),
		slog.Int("video_bitrate_kbps", bitrate),
	)

	return &Result{Compressed: true, OriginalMB: originalMB, FinalMB: finalMB}, nil
}

// VideoBitrateKbps computes the video bitrate budget in kbps: the target
// size spread over the duration, minus the fixed audio bitrate, floored at
// the configured minimum so very long inputs don't degenerate.
func (t *Transcoder) VideoBitrateKbps(durationSec float64) int {
	targetBits := t.cfg.TargetSizeMB * 8 * 1024 * 1024
	audioBits := float64(t.cfg.AudioBitrateKbps) * 1024
	kbps := int((targetBits/durationSec - audioBits) / 1024)
	if kbps < t.cfg.MinVideoBitrateKbps {
		return t.cfg.MinVideoBitrateKbps
	}
	return kbps
}

func (t *Transcoder) encodeArgs(inputPath, outputPath string, height, bitrateKbps int) []string {
	args := []string{"-i", inputPath}
	if height > 720 {
		args = append(args, "-vf", "scale=-2:720")
	}
	args = append(args,
		"-c:v", "libx264",
		"-b:v", strconv.Itoa(bitrateKbps)+"k",
		"-c:a", "aac",
		"-b:a", strconv.Itoa(t.cfg.AudioBitrateKbps)+"k",
		"-preset", t.cfg.Preset,
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)
	return args
}

func (t *Transcoder) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %v: %s", err, tail(stderr.Bytes(), stderrTailBytes))
	}
	return nil
}

type probeInfo struct {
	Duration float64
	Height   int
}

func (t *Transcoder) probe(ctx context.Context, path string) (probeInfo, error) {
	cmd := exec.CommandContext(ctx, t.cfg.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=height",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return probeInfo{}, fmt.Errorf("ffprobe failed: %v: %s", err, tail(stderr.Bytes(), stderrTailBytes))
	}
	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (probeInfo, error) {
	var out struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			Height int `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return probeInfo{}, fmt.Errorf("failed to parse probe output: %w", err)
	}

	info := probeInfo{}
	if out.Format.Duration != "" {
		duration, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return probeInfo{}, fmt.Errorf("failed to parse probed duration %q: %w", out.Format.Duration, err)
		}
		info.Duration = duration
	}
	if len(out.Streams) > 0 {
		info.Height = out.Streams[0].Height
	}
	return info, nil
}

func fileSizeMB(path string) (float64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(stat.Size()) / (1024 * 1024), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
