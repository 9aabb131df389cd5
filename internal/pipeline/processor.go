package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
	"github.com/kidooo/analysis-service/internal/extract"
	"github.com/kidooo/analysis-service/internal/prompt"
	"github.com/kidooo/analysis-service/internal/screening"
)

// process runs one job through the state machine. Every transition and
// progress entry is durably persisted before the next step starts, so a
// polling client always observes a consistent, monotonically advancing
// view. Local artifacts are removed best-effort in all outcomes.
func (r *Runner) process(ctx context.Context, task Task) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
	defer cancel()

	transcodedPath := task.SourcePath + "_transcoded.mp4"
	defer func() {
		removeQuietly(task.SourcePath)
		removeQuietly(transcodedPath)
	}()

	artifactPath := task.SourcePath

	if task.Kind == domain.KindVideo {
		if err := r.setState(ctx, task.JobID, domain.StateTranscoding, "Preparing video for analysis..."); err != nil {
			r.logger.Error("Failed to persist state", slog.Int("job_id", task.JobID), slog.String("error", err.Error()))
			return
		}

		result, err := r.transcoder.Transcode(ctx, task.SourcePath, transcodedPath)
		if err != nil {
			r.fail(ctx, task.JobID, fmt.Sprintf("transcoding failed: %s", err))
			return
		}
		artifactPath = transcodedPath

		message := fmt.Sprintf("Video is %.1fMB, no compression needed", result.OriginalMB)
		if result.Compressed {
			message = fmt.Sprintf("Compressed: %.1fMB -> %.1fMB", result.OriginalMB, result.FinalMB)
		}
		_, err = r.store.Update(context.WithoutCancel(ctx), task.JobID, func(j *domain.Job) error {
			j.SizeMetrics = &domain.SizeMetrics{OriginalMB: result.OriginalMB, FinalMB: result.FinalMB}
			j.AppendLog(message)
			return nil
		})
		if err != nil {
			r.logger.Error("Failed to persist size metrics", slog.Int("job_id", task.JobID), slog.String("error", err.Error()))
			return
		}
	}

	if err := r.setState(ctx, task.JobID, domain.StateInferring, "Uploading to inference service..."); err != nil {
		r.logger.Error("Failed to persist state", slog.Int("job_id", task.JobID), slog.String("error", err.Error()))
		return
	}

	promptText := prompt.WithScreeningContext(task.Instructions, r.screeningFor(ctx, task.ChildID))

	raw, err := r.analyzer.Analyze(ctx, artifactPath, task.MIMEType, promptText, func(message string) {
		r.logf(ctx, task.JobID, message)
	})
	if err != nil {
		r.fail(ctx, task.JobID, err.Error())
		return
	}

	scores := extract.Scores(raw)
	narrative := extract.StripScores(raw)
	summary := extract.Summary(narrative)

	_, err = r.store.Update(context.WithoutCancel(ctx), task.JobID, func(j *domain.Job) error {
		j.SetCompleted(narrative, summary, scores)
		j.AppendLog("Analysis complete!")
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to persist completion", slog.Int("job_id", task.JobID), slog.String("error", err.Error()))
		return
	}

	r.logger.Info("Job completed", slog.Int("job_id", task.JobID))
}

// screeningFor looks up questionnaire context for the job's child. Lookup
// problems degrade to "no context"; they never fail the job.
func (r *Runner) screeningFor(ctx context.Context, childID string) *screening.Result {
	if r.screenings == nil || childID == "" {
		return nil
	}
	result, err := r.screenings.Get(ctx, childID)
	if err != nil {
		r.logger.Warn("Failed to load screening context",
			slog.String("child_id", childID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return result
}

// setState persists a state transition. Persistence runs detached from the
// per-job deadline so a transition that was already decided still lands.
func (r *Runner) setState(ctx context.Context, jobID int, state, message string) error {
	_, err := r.store.Update(context.WithoutCancel(ctx), jobID, func(j *domain.Job) error {
		j.State = state
		j.AppendLog(message)
		return nil
	})
	return err
}

// logf appends one progress entry and persists it immediately.
func (r *Runner) logf(ctx context.Context, jobID int, message string) {
	_, err := r.store.Update(context.WithoutCancel(ctx), jobID, func(j *domain.Job) error {
		j.AppendLog(message)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to append progress entry",
			slog.Int("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
	r.logger.Info("Job progress", slog.Int("job_id", jobID), slog.String("message", message))
}

// fail records the terminal failure state. The write runs detached from the
// per-job deadline: a timed-out or cancelled job must still land on failed,
// never sit at a non-terminal state forever.
func (r *Runner) fail(ctx context.Context, jobID int, reason string) {
	_, err := r.store.Update(context.WithoutCancel(ctx), jobID, func(j *domain.Job) error {
		j.SetFailed(reason)
		j.AppendLog("Error: " + reason)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to persist failure",
			slog.Int("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
	r.logger.Error("Job failed", slog.Int("job_id", jobID), slog.String("reason", reason))
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
