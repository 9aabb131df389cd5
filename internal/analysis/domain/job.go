package domain

import "time"

// Job states. Transitions are monotonic:
// received -> transcoding -> inferring -> completed,
// with failed reachable from transcoding or inferring.
// Document jobs skip transcoding and go straight to inferring.
const (
	StateReceived    = "received"
	StateTranscoding = "transcoding"
	StateInferring   = "inferring"
	StateCompleted   = "completed"
	StateFailed      = "failed"
)

// Artifact kinds accepted by the pipeline.
const (
	KindVideo    = "video"
	KindDocument = "document"
)

// LogEntry is one timestamped line of a job's progress trail.
type LogEntry struct {
	Time    time.Time `json:"time" db:"time"`
	Message string    `json:"message" db:"message"`
}

// Scores is the structured vector parsed from the model's response.
// All six dimensions are on a 0-10 scale.
type Scores struct {
	Communication     float64 `json:"communication"`
	EyeContact        float64 `json:"eyeContact"`
	SocialEngagement  float64 `json:"socialEngagement"`
	Gestures          float64 `json:"gestures"`
	SpeechClarity     float64 `json:"speechClarity"`
	EmotionalResponse float64 `json:"emotionalResponse"`
}

// SizeMetrics reports artifact size before and after transcoding, in MB.
type SizeMetrics struct {
	OriginalMB float64 `json:"originalSizeMB"`
	FinalMB    float64 `json:"finalSizeMB"`
}

// ScenarioContext records which analysis variant was requested.
// Immutable after job creation.
type ScenarioContext struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SubjectContext correlates a job with a child profile for display.
// Immutable after job creation.
type SubjectContext struct {
	ID   string `json:"subjectId"`
	Name string `json:"subjectName"`
}

// Job is one submitted artifact's processing lifecycle.
type Job struct {
	ID             int              `json:"id"`
	SourceFileName string           `json:"sourceFileName"`
	Kind           string           `json:"kind"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	State          string           `json:"state"`
	SizeMetrics    *SizeMetrics     `json:"sizeMetrics,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	FailureReason  string           `json:"failureReason,omitempty"`
	ProgressLog    []LogEntry       `json:"progressLog"`
	Scenario       *ScenarioContext `json:"scenario,omitempty"`
	Subject        *SubjectContext  `json:"subject,omitempty"`
	Scores         *Scores          `json:"scores,omitempty"`
	Narrative      string           `json:"narrative,omitempty"`
	BriefSummary   string           `json:"briefSummary,omitempty"`
}

// AppendLog adds one progress entry. The log only ever grows.
func (j *Job) AppendLog(message string) {
	j.ProgressLog = append(j.ProgressLog, LogEntry{Time: time.Now().UTC(), Message: message})
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	return j.State == StateCompleted || j.State == StateFailed
}

// SetCompleted moves the job to its terminal success state. Scores may be nil
// when the structured block could not be parsed; the job still completes.
func (j *Job) SetCompleted(narrative, summary string, scores *Scores) {
	now := time.Now().UTC()
	j.State = StateCompleted
	j.Narrative = narrative
	j.BriefSummary = summary
	j.Scores = scores
	j.CompletedAt = &now
}

// SetFailed moves the job to its terminal failure state.
func (j *Job) SetFailed(reason string) {
	j.State = StateFailed
	j.FailureReason = reason
}
