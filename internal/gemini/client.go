// Package gemini drives the external multimodal inference protocol: upload
// an artifact, poll until the remote side has processed it, run a single
// generation call with the prompt, then clean up the remote file.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// ErrProcessingFailed is returned when the remote service reports a failed
// processing state for the uploaded artifact. Not retried; resubmission by
// the user is the retry mechanism.
var ErrProcessingFailed = errors.New("inference service failed to process the uploaded file")

// ErrProcessingTimeout is returned when the remote file never leaves the
// processing state within the configured bound.
var ErrProcessingTimeout = errors.New("timed out waiting for remote processing")

// FileState is the remote artifact's processing state.
type FileState int

const (
	FileStateUnknown FileState = iota
	FileStateProcessing
	FileStateActive
	FileStateFailed
)

// File is a handle to an artifact uploaded to the inference service.
type File struct {
	Name     string
	URI      string
	MIMEType string
	State    FileState
}

// Backend is the remote API surface the analyzer drives. The production
// implementation wraps the Gemini SDK; tests substitute a fake.
type Backend interface {
	Upload(ctx context.Context, r io.Reader, mimeType string) (*File, error)
	File(ctx context.Context, name string) (*File, error)
	Generate(ctx context.Context, file *File, prompt string) (string, error)
	Delete(ctx context.Context, name string) error
}

// Config holds analyzer settings. Zero values fall back to defaults.
type Config struct {
	Model           string
	PollInterval    time.Duration
	MaxPollDuration time.Duration
	ProgressEvery   int
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.MaxPollDuration == 0 {
		c.MaxPollDuration = 10 * time.Minute
	}
	if c.ProgressEvery == 0 {
		c.ProgressEvery = 2
	}
	return c
}

// Analyzer runs the upload/poll/generate/delete protocol for one artifact
// at a time. Safe for concurrent use by multiple pipeline workers.
type Analyzer struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer over the given backend.
func NewAnalyzer(backend Backend, cfg Config, logger *slog.Logger) *Analyzer {
	return &Analyzer{backend: backend, cfg: cfg.withDefaults(), logger: logger}
}

// Analyze uploads the file, waits for the remote side to process it, runs
// one generation call with the prompt, and returns the raw response text.
// onProgress receives coarse progress notifications, throttled to every
// Nth poll so the job's trail is not flooded. The remote file is deleted
// best-effort afterward; deletion failures never surface to the caller.
func (a *Analyzer) Analyze(ctx context.Context, path, mimeType, promptText string, onProgress func(string)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	uploaded, err := a.backend.Upload(ctx, f, mimeType)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	onProgress("File uploaded to inference service, waiting for processing...")

	defer func() {
		if err := a.backend.Delete(context.WithoutCancel(ctx), uploaded.Name); err != nil {
			a.logger.Warn("Failed to delete remote file",
				slog.String("file", uploaded.Name),
				slog.String("error", err.Error()),
			)
		}
	}()

	ready, err := a.waitUntilProcessed(ctx, uploaded, onProgress)
	if err != nil {
		return "", err
	}

	onProgress("Remote processing complete, generating analysis...")
	text, err := a.backend.Generate(ctx, ready, promptText)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	onProgress("AI analysis received")
	return text, nil
}

func (a *Analyzer) waitUntilProcessed(ctx context.Context, file *File, onProgress func(string)) (*File, error) {
	start := time.Now()
	polls := 0

	for file.State == FileStateProcessing {
		if time.Since(start) > a.cfg.MaxPollDuration {
			return nil, ErrProcessingTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.cfg.PollInterval):
		}

		updated, err := a.backend.File(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("poll failed: %w", err)
		}
		file = updated

		polls++
		if polls%a.cfg.ProgressEvery == 0 {
			onProgress("Still processing on inference service...")
		}
	}

	if file.State == FileStateFailed {
		return nil, ErrProcessingFailed
	}
	return file, nil
}
