package dto

// SaveScreeningRequest carries a completed M-CHAT-R questionnaire.
type SaveScreeningRequest struct {
	ChildID   string       `json:"childId" binding:"required"`
	Answers   map[int]bool `json:"answers" binding:"required"`
	Score     int          `json:"score"`
	RiskLevel string       `json:"riskLevel" binding:"required"`
}

// CreateChildRequest registers a child profile.
type CreateChildRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
}
