package journal

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusAnalyzed   Status = "ANALYZED"
	StatusFailed     Status = "FAILED"
)

type Entry struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	Text         string    `json:"text" db:"text"`
	Emotion      *string   `json:"emotion" db:"emotion"`
	Status       Status    `json:"status" db:"status"`
	ErrorMessage *string   `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AnalysisPayload is the queue message asking for one entry to be labeled.
type AnalysisPayload struct {
	EntryID int `json:"entry_id"`
	UserID  int `json:"user_id"`
}

type EntryRequest struct {
	Title string `json:"title" binding:"max=255"`
	Text  string `json:"text" binding:"required"`
}
