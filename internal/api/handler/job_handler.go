package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
	"github.com/kidooo/analysis-service/internal/pipeline"
	"github.com/kidooo/analysis-service/internal/prompt"
)

var allowedVideoExts = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true,
	".ogg": true, ".3gp": true, ".m4v": true, ".mpeg": true, ".mpg": true,
}

var allowedVideoMimes = map[string]bool{
	"video/mp4": true, "video/webm": true, "video/quicktime": true,
	"video/x-msvideo": true, "video/x-matroska": true, "video/ogg": true,
	"video/3gpp": true, "video/3gpp2": true, "video/mpeg": true,
	"video/x-m4v": true,
}

// documentMimeTypes maps accepted document extensions to the MIME type sent
// with the inference upload.
var documentMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// UploadVideo handles POST /api/videos/upload.
// Creates the job record synchronously and starts the pipeline without
// waiting for it; all progress visibility is through re-reading job state.
func (h *JobHandler) UploadVideo(c *gin.Context) {
	file, ok := h.receiveFile(c, "video")
	if !ok {
		return
	}

	if !videoTypeAllowed(file) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only video files are allowed"})
		return
	}

	if !h.inferenceReady {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Inference API key not configured. Set GEMINI_API_KEY in .env"})
		return
	}

	scenarioID := c.PostForm("scenarioId")
	instructions := prompt.GenericVideo()
	var scenarioCtx *domain.ScenarioContext
	if scenarioID != "" {
		scenario, found := prompt.LookupScenario(scenarioID)
		if found {
			instructions = scenario.Prompt()
			scenarioCtx = &domain.ScenarioContext{ID: scenario.ID, Title: scenario.Title}
		}
	}

	h.createAndSubmit(c, file, createParams{
		kind:         domain.KindVideo,
		mimeType:     "video/mp4",
		instructions: instructions,
		scenario:     scenarioCtx,
		intakeNoun:   "Video",
	})
}

// UploadReport handles POST /api/reports/upload.
// Documents skip the transcoding step and go straight to inference.
func (h *JobHandler) UploadReport(c *gin.Context) {
	file, ok := h.receiveFile(c, "report")
	if !ok {
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimeType, allowed := documentMimeTypes[ext]
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported document type"})
		return
	}

	if !h.inferenceReady {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Inference API key not configured. Set GEMINI_API_KEY in .env"})
		return
	}

	h.createAndSubmit(c, file, createParams{
		kind:         domain.KindDocument,
		mimeType:     mimeType,
		instructions: prompt.Report(),
		scenario:     &domain.ScenarioContext{ID: "evaluation-report", Title: "Evaluation Report"},
		intakeNoun:   "Evaluation report",
	})
}

// ListJobs handles GET /api/videos.
// Returns the full collection in store order; clients re-sort as needed.
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /api/videos/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		h.logger.Error("Failed to get job", slog.Int("id", id), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

type createParams struct {
	kind         string
	mimeType     string
	instructions string
	scenario     *domain.ScenarioContext
	intakeNoun   string
}

func (h *JobHandler) createAndSubmit(c *gin.Context, file *multipart.FileHeader, params createParams) {
	childID := c.PostForm("childId")
	childName := c.PostForm("childName")

	sourcePath := filepath.Join(h.uploadsDir, uuid.New().String())
	if err := c.SaveUploadedFile(file, sourcePath); err != nil {
		h.logger.Error("Failed to store upload", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	job := &domain.Job{
		SourceFileName: file.Filename,
		Kind:           params.kind,
		SubmittedAt:    time.Now().UTC(),
		State:          domain.StateReceived,
		Scenario:       params.scenario,
	}
	if childID != "" || childName != "" {
		job.Subject = &domain.SubjectContext{ID: childID, Name: childName}
	}
	job.AppendLog(intakeMessage(params.intakeNoun, childName, params.scenario))

	created, err := h.store.Create(c.Request.Context(), job)
	if err != nil {
		os.Remove(sourcePath)
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	task := pipeline.Task{
		JobID:        created.ID,
		SourcePath:   sourcePath,
		Kind:         params.kind,
		MIMEType:     params.mimeType,
		Instructions: params.instructions,
		ChildID:      childID,
	}
	if err := h.runner.Submit(task); err != nil {
		// The client still gets a terminal snapshot instead of a job that
		// would never progress.
		os.Remove(sourcePath)
		failed, updateErr := h.store.Update(c.Request.Context(), created.ID, func(j *domain.Job) error {
			j.SetFailed(err.Error())
			j.AppendLog("Error: " + err.Error())
			return nil
		})
		if updateErr != nil {
			h.logger.Error("Failed to mark job failed", slog.Int("job_id", created.ID), slog.String("error", updateErr.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
			return
		}
		c.JSON(http.StatusCreated, failed)
		return
	}

	h.logger.Info("Job submitted",
		slog.Int("job_id", created.ID),
		slog.String("kind", params.kind),
		slog.String("file", file.Filename),
	)
	c.JSON(http.StatusCreated, created)
}

// receiveFile pulls the multipart artifact, translating the transport-layer
// size cap into a 413 and a missing artifact into a 400.
func (h *JobHandler) receiveFile(c *gin.Context, field string) (*multipart.FileHeader, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			limitMB := maxBytesErr.Limit / (1024 * 1024)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File too large (max %dMB)", limitMB)})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("No %s file provided", field)})
		return nil, false
	}
	return file, true
}

func videoTypeAllowed(file *multipart.FileHeader) bool {
	contentType := file.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "video/") || allowedVideoMimes[contentType] {
		return true
	}
	return allowedVideoExts[strings.ToLower(filepath.Ext(file.Filename))]
}

func intakeMessage(noun, childName string, scenario *domain.ScenarioContext) string {
	var b strings.Builder
	b.WriteString(noun)
	b.WriteString(" received")
	if childName != "" {
		b.WriteString(" for ")
		b.WriteString(childName)
	}
	if scenario != nil {
		fmt.Fprintf(&b, " (%q scenario)", scenario.Title)
	}
	b.WriteString(", starting processing...")
	return b.String()
}
