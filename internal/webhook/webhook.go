package webhook

import (
	"context"
	"time"
)

// SummaryPayload is the JSON body posted after a summary is generated.
type SummaryPayload struct {
	Summary        string    `json:"summary"`
	Draft          string    `json:"draft"`
	TranscriptPath string    `json:"transcript_path"`
	SummaryPath    string    `json:"summary_path"`
	SummaryModel   string    `json:"summary_model"`
	RefineModel    string    `json:"refine_model"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type Sender interface {
	SendSummary(ctx context.Context, payload SummaryPayload) error
}
