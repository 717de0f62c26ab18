// Package events carries session notifications to subscribers that the
// session itself knows nothing about.
package events

import (
	"time"

	"github.com/vytor/scholarsrs/internal/models"
)

type Type string

const (
	CardDisplayed    Type = "card_displayed"
	AnswerRevealed   Type = "answer_revealed"
	VerdictRecorded  Type = "verdict_recorded"
	PhaseAdvanced    Type = "phase_advanced"
	BreakStarted     Type = "break_started"
	BreakEnded       Type = "break_ended"
	SessionCompleted Type = "session_completed"
	SessionPaused    Type = "session_paused"
	SessionResumed   Type = "session_resumed"
)

// Event is one notification. Data holds the payload type matching Type.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Data      any       `json:"data,omitempty"`
}

// CardPayload goes with CardDisplayed and AnswerRevealed.
type CardPayload struct {
	Card models.Card `json:"card"`
}

type VerdictPayload struct {
	Card      models.Card           `json:"card"`
	Correct   bool                  `json:"correct"`
	LatencyMs int64                 `json:"latency_ms"`
	Class     models.Classification `json:"class"`
}

type PhasePayload struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type BreakPayload struct {
	Duration time.Duration `json:"duration,omitempty"`
	Skipped  bool          `json:"skipped"`
}

type CompletedPayload struct {
	Report models.Report `json:"report"`
}

type PausePayload struct {
	Paused time.Duration `json:"paused,omitempty"`
}
