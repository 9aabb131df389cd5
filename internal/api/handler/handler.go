package handler

import (
	"log/slog"

	"github.com/kidooo/analysis-service/internal/analysis/store"
	"github.com/kidooo/analysis-service/internal/child"
	"github.com/kidooo/analysis-service/internal/pipeline"
	"github.com/kidooo/analysis-service/internal/screening"
)

// Submitter enqueues pipeline work without blocking the request.
type Submitter interface {
	Submit(task pipeline.Task) error
}

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Logger     *slog.Logger
	Store      store.Store
	Runner     Submitter
	Screenings *screening.Store
	Children   *child.Store

	UploadsDir string
	// InferenceReady is false when no API key is configured; submissions
	// are rejected before any job is created.
	InferenceReady bool

	// Request body caps for the two upload routes, in bytes.
	MaxVideoBytes  int64
	MaxReportBytes int64
}

// JobHandler handles artifact submission and job polling.
type JobHandler struct {
	logger         *slog.Logger
	store          store.Store
	runner         Submitter
	uploadsDir     string
	inferenceReady bool
}

// NewJobHandler creates a new JobHandler instance.
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:         deps.Logger,
		store:          deps.Store,
		runner:         deps.Runner,
		uploadsDir:     deps.UploadsDir,
		inferenceReady: deps.InferenceReady,
	}
}

// ScreeningHandler handles questionnaire result endpoints.
type ScreeningHandler struct {
	logger *slog.Logger
	store  *screening.Store
}

// NewScreeningHandler creates a new ScreeningHandler instance.
func NewScreeningHandler(deps *Dependencies) *ScreeningHandler {
	return &ScreeningHandler{logger: deps.Logger, store: deps.Screenings}
}

// ChildHandler handles child profile endpoints.
type ChildHandler struct {
	logger *slog.Logger
	store  *child.Store
}

// NewChildHandler creates a new ChildHandler instance.
func NewChildHandler(deps *Dependencies) *ChildHandler {
	return &ChildHandler{logger: deps.Logger, store: deps.Children}
}
