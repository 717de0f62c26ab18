package models

import (
	"math"
	"time"
)

// Card is a single question/answer item together with its in-session statistics.
// Phase queues hold *Card pointers into the card store, never copies.
type Card struct {
	ID                 int           `json:"id"`
	Question           string        `json:"question"`
	Answer             string        `json:"answer"`
	CorrectCount       int           `json:"correct_count"`
	WrongCount         int           `json:"wrong_count"`
	TotalSeen          int           `json:"total_seen"`
	ConsecutiveCorrect int           `json:"consecutive_correct"`
	Difficulty         float64       `json:"difficulty"`
	LastSeen           time.Duration `json:"last_seen"`
	LastResponseTime   time.Duration `json:"last_response_time"`
	AvgResponseTime    time.Duration `json:"avg_response_time"`
	PhaseFirstSeen     int           `json:"phase_first_seen"`
}

// NewCard returns a fresh card that has never been shown.
func NewCard(id int, question, answer string) *Card {
	return &Card{
		ID:             id,
		Question:       question,
		Answer:         answer,
		PhaseFirstSeen: -1,
	}
}

// Verdicts is the number of correctness judgments recorded for the card.
func (c *Card) Verdicts() int {
	return c.CorrectCount + c.WrongCount
}

// ErrorRate is wrong verdicts over times shown, with the denominator floored at 1.
func (c *Card) ErrorRate() float64 {
	return float64(c.WrongCount) / float64(max(1, c.TotalSeen))
}

// DifficultyLevel maps Difficulty onto a 0-5 indicator.
func (c *Card) DifficultyLevel() int {
	return min(5, int(math.Ceil(c.Difficulty*5)))
}

// Response is one recorded verdict on a card.
type Response struct {
	Correct bool          `json:"correct"`
	Latency time.Duration `json:"latency"`
	At      time.Time     `json:"at"`
	Phase   int           `json:"phase"`
}
