package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
	"github.com/kidooo/analysis-service/internal/analysis/store"
	"github.com/kidooo/analysis-service/internal/prompt"
	"github.com/kidooo/analysis-service/internal/screening"
	"github.com/kidooo/analysis-service/internal/transcode"
)

const fakeResponse = `## Brief Summary
Warm and engaged throughout.

## Recommendations
Keep playing together.

## Scores
` + "```json\n" +
	`{"communication": 6, "eyeContact": 7, "socialEngagement": 6, "gestures": 5, "speechClarity": 4, "emotionalResponse": 8}` +
	"\n```"

type fakeTranscoder struct {
	result *transcode.Result
	err    error
}

func (f *fakeTranscoder) Transcode(_ context.Context, _, outputPath string) (*transcode.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(outputPath, []byte("transcoded"), 0o644); err != nil {
		return nil, err
	}
	return f.result, nil
}

type fakeAnalyzer struct {
	response string
	err      error
	prompt   string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _, _, promptText string, onProgress func(string)) (string, error) {
	f.prompt = promptText
	onProgress("File uploaded to inference service, waiting for processing...")
	if f.err != nil {
		return "", f.err
	}
	onProgress("AI analysis received")
	return f.response, nil
}

type fakeScreenings struct {
	results map[string]*screening.Result
}

func (f *fakeScreenings) Get(_ context.Context, childID string) (*screening.Result, error) {
	return f.results[childID], nil
}

type pipelineFixture struct {
	store      *store.FileStore
	transcoder *fakeTranscoder
	analyzer   *fakeAnalyzer
	runner     *Runner
	dir        string
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	dir := t.TempDir()

	s, err := store.NewFileStore(filepath.Join(dir, "jobs.json"), slog.Default())
	require.NoError(t, err)

	transcoder := &fakeTranscoder{result: &transcode.Result{Compressed: true, OriginalMB: 45.0, FinalMB: 17.2}}
	analyzer := &fakeAnalyzer{response: fakeResponse}
	screenings := &fakeScreenings{results: map[string]*screening.Result{}}

	runner := NewRunner(s, transcoder, analyzer, screenings, Config{Concurrency: 1, QueueSize: 4, JobTimeout: time.Minute}, slog.Default())

	return &pipelineFixture{store: s, transcoder: transcoder, analyzer: analyzer, runner: runner, dir: dir}
}

func (f *pipelineFixture) createJob(t *testing.T, kind string) (*domain.Job, string) {
	t.Helper()
	src := filepath.Join(f.dir, "upload-src")
	require.NoError(t, os.WriteFile(src, []byte("artifact"), 0o644))

	job := &domain.Job{
		SourceFileName: "clip.mp4",
		Kind:           kind,
		SubmittedAt:    time.Now().UTC(),
		State:          domain.StateReceived,
	}
	job.AppendLog("received")
	created, err := f.store.Create(context.Background(), job)
	require.NoError(t, err)
	return created, src
}

func TestProcessVideoSuccess(t *testing.T) {
	f := newFixture(t)
	job, src := f.createJob(t, domain.KindVideo)

	f.runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindVideo,
		MIMEType:     "video/mp4",
		Instructions: prompt.GenericVideo(),
	})

	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, got.State)
	require.NotNil(t, got.Scores)
	assert.Equal(t, 7.0, got.Scores.EyeContact)
	assert.NotContains(t, got.Narrative, "```json")
	assert.Equal(t, "Warm and engaged throughout.", got.BriefSummary)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.SizeMetrics)
	assert.Equal(t, 45.0, got.SizeMetrics.OriginalMB)
	assert.Equal(t, 17.2, got.SizeMetrics.FinalMB)
	assert.Empty(t, got.FailureReason)

	// Local artifacts are gone in all outcomes.
	assert.NoFileExists(t, src)
	assert.NoFileExists(t, src+"_transcoded.mp4")

	// The trail grew monotonically and ends with the completion entry.
	require.NotEmpty(t, got.ProgressLog)
	assert.Equal(t, "Analysis complete!", got.ProgressLog[len(got.ProgressLog)-1].Message)
}

func TestProcessDocumentSkipsTranscoding(t *testing.T) {
	f := newFixture(t)
	job, src := f.createJob(t, domain.KindDocument)

	f.runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindDocument,
		MIMEType:     "application/pdf",
		Instructions: prompt.Report(),
	})

	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, got.State)
	assert.Nil(t, got.SizeMetrics)
	for _, entry := range got.ProgressLog {
		assert.NotContains(t, entry.Message, "Compressed")
	}
	assert.NoFileExists(t, src)
}

func TestProcessAnalyzerFailure(t *testing.T) {
	f := newFixture(t)
	f.analyzer.err = errors.New("upload failed: network down")
	job, src := f.createJob(t, domain.KindVideo)

	f.runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindVideo,
		MIMEType:     "video/mp4",
		Instructions: prompt.GenericVideo(),
	})

	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StateFailed, got.State)
	assert.Contains(t, got.FailureReason, "network down")
	assert.Nil(t, got.Scores)
	assert.Nil(t, got.CompletedAt)

	// Both the original and the transcoded temp file are gone.
	assert.NoFileExists(t, src)
	assert.NoFileExists(t, src+"_transcoded.mp4")

	// The trail records the error for post-mortem display.
	last := got.ProgressLog[len(got.ProgressLog)-1]
	assert.Contains(t, last.Message, "network down")
}

func TestProcessTranscoderFailure(t *testing.T) {
	f := newFixture(t)
	f.transcoder.err = errors.New("ffmpeg failed: exit status 1: moov atom not found")
	job, src := f.createJob(t, domain.KindVideo)

	f.runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindVideo,
		MIMEType:     "video/mp4",
		Instructions: prompt.GenericVideo(),
	})

	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	assert.Contains(t, got.FailureReason, "moov atom not found")
	assert.NoFileExists(t, src)
}

func TestProcessInjectsScreeningContextForSubject(t *testing.T) {
	f := newFixture(t)
	f.runner.screenings = &fakeScreenings{results: map[string]*screening.Result{
		"child-7": {ChildID: "child-7", Score: 10, RiskLevel: "medium", Answers: map[int]bool{2: true, 10: false}},
	}}

	job, src := f.createJob(t, domain.KindVideo)
	scenario, ok := prompt.LookupScenario("eye-contact")
	require.True(t, ok)

	f.runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindVideo,
		MIMEType:     "video/mp4",
		Instructions: scenario.Prompt(),
		ChildID:      "child-7",
	})

	assert.Contains(t, f.analyzer.prompt, prompt.ScreeningContextStart)
	assert.Contains(t, f.analyzer.prompt, "Risk score: 10/20 (medium risk).")
	assert.Contains(t, f.analyzer.prompt, "**Eye Contact**")
}

func TestProcessNoScreeningContextWithoutSubject(t *testing.T) {
	f := newFixture(t)
	job, src := f.createJob(t, domain.KindVideo)
	scenario, ok := prompt.LookupScenario("eye-contact")
	require.True(t, ok)

	f.runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindVideo,
		MIMEType:     "video/mp4",
		Instructions: scenario.Prompt(),
	})

	assert.Contains(t, f.analyzer.prompt, "**Eye Contact**")
	assert.NotContains(t, f.analyzer.prompt, prompt.ScreeningContextStart)
}

// deadlineStore refuses writes once the caller's context is dead, the same
// way a transaction-opening database store would.
type deadlineStore struct {
	store.Store
}

func (s *deadlineStore) Update(ctx context.Context, id int, mutate func(*domain.Job) error) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.Update(ctx, id, mutate)
}

// blockingAnalyzer never returns until the job deadline kills it.
type blockingAnalyzer struct{}

func (blockingAnalyzer) Analyze(ctx context.Context, _, _, _ string, _ func(string)) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestProcessJobTimeoutStillReachesTerminalState(t *testing.T) {
	f := newFixture(t)
	job, src := f.createJob(t, domain.KindDocument)

	runner := NewRunner(
		&deadlineStore{Store: f.store},
		f.transcoder,
		blockingAnalyzer{},
		&fakeScreenings{},
		Config{Concurrency: 1, QueueSize: 4, JobTimeout: 50 * time.Millisecond},
		slog.Default(),
	)

	runner.process(context.Background(), Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindDocument,
		MIMEType:     "application/pdf",
		Instructions: prompt.Report(),
	})

	// The failed-state write must land even though the per-job context is
	// already dead; the job can never sit at a non-terminal state.
	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	assert.Contains(t, got.FailureReason, context.DeadlineExceeded.Error())

	last := got.ProgressLog[len(got.ProgressLog)-1]
	assert.Contains(t, last.Message, "Error:")
}

func TestProcessWorkerCancelStillReachesTerminalState(t *testing.T) {
	f := newFixture(t)
	job, src := f.createJob(t, domain.KindDocument)

	runner := NewRunner(
		&deadlineStore{Store: f.store},
		f.transcoder,
		blockingAnalyzer{},
		&fakeScreenings{},
		Config{Concurrency: 1, QueueSize: 4, JobTimeout: time.Minute},
		slog.Default(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	runner.process(ctx, Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindDocument,
		MIMEType:     "application/pdf",
		Instructions: prompt.Report(),
	})

	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
}

func TestRunnerSubmitQueueFull(t *testing.T) {
	f := newFixture(t)
	// Workers never started, so the queue only drains on capacity.
	for i := 0; i < 4; i++ {
		require.NoError(t, f.runner.Submit(Task{JobID: i}))
	}
	assert.ErrorIs(t, f.runner.Submit(Task{JobID: 99}), domain.ErrQueueFull)
}

func TestRunnerProcessesSubmittedTask(t *testing.T) {
	f := newFixture(t)
	job, src := f.createJob(t, domain.KindVideo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.runner.Start(ctx)

	require.NoError(t, f.runner.Submit(Task{
		JobID:        job.ID,
		SourcePath:   src,
		Kind:         domain.KindVideo,
		MIMEType:     "video/mp4",
		Instructions: prompt.GenericVideo(),
	}))

	require.Eventually(t, func() bool {
		got, err := f.store.Get(context.Background(), job.ID)
		return err == nil && got.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	f.runner.Stop()

	got, err := f.store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, got.State)
}
