package models

// ExtractRequest asks the model to turn free text into behavior entries.
type ExtractRequest struct {
	Text string `json:"text" validate:"required"`
	Save bool   `json:"save"`
}

// ExtractionResult carries model-proposed entries and any that were persisted.
type ExtractionResult struct {
	Drafts  []BehaviorEntry `json:"drafts"`
	Saved   []BehaviorEntry `json:"saved,omitempty"`
	Skipped []string        `json:"skipped,omitempty"`
}

// VoiceAnalysis is the model's reading of an audio note.
type VoiceAnalysis struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	ExtractionResult
}

// MediaAnalysis is the model's reading of a video clip or photo.
type MediaAnalysis struct {
	Observations []string `json:"observations"`
	Emotions     []string `json:"emotions"`
	Summary      string   `json:"summary"`
	ExtractionResult
}

// PDFFileResult reports the outcome for one uploaded document.
type PDFFileResult struct {
	Name    string          `json:"name"`
	Drafts  []BehaviorEntry `json:"drafts"`
	Skipped []string        `json:"skipped,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// PDFImportResult aggregates a multi-file import.
type PDFImportResult struct {
	Files  []PDFFileResult `json:"files"`
	Total  int             `json:"total"`
	Failed int             `json:"failed"`
	Saved  []BehaviorEntry `json:"saved,omitempty"`
}

// ChatTurn is one prior exchange in a chat.
type ChatTurn struct {
	Role string `json:"role" validate:"oneof=user model"`
	Text string `json:"text" validate:"required"`
}

// ChatRequest is a question about the account's data.
type ChatRequest struct {
	Message string     `json:"message" validate:"required"`
	History []ChatTurn `json:"history" validate:"dive"`
}

// ChatReply is the model's answer.
type ChatReply struct {
	Reply string `json:"reply"`
}

// Insights are natural-language recommendations drawn from analytics.
type Insights struct {
	Summary         string           `json:"summary"`
	Recommendations []string         `json:"recommendations"`
	Patterns        []string         `json:"patterns"`
	Analytics       AnalyticsSummary `json:"analytics"`
}
