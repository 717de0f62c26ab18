package models

import "time"

// Report summarizes a finished session.
type Report struct {
	ID             int64         `json:"id,omitempty"`
	SessionID      string        `json:"session_id"`
	TotalHours     float64       `json:"total_hours"`
	MasteredCount  int           `json:"mastered_count"`
	TotalCount     int           `json:"total_count"`
	MasteryPercent int           `json:"mastery_percent"`
	Elapsed        time.Duration `json:"elapsed"`
	Hours          int           `json:"hours"`
	Minutes        int           `json:"minutes"`
	AccuracyPct    int           `json:"accuracy_pct"`
	LearningRate   float64       `json:"learning_rate"`
	TotalReviews   int           `json:"total_reviews"`
	LongestStreak  int           `json:"longest_streak"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// ReportFilter narrows archived report listings.
type ReportFilter struct {
	MinAccuracy int
	Since       *time.Time
	Limit       int
	Offset      int
}

// Performance holds session-wide verdict counters.
type Performance struct {
	TotalAttempts int           `json:"total_attempts"`
	TotalCorrect  int           `json:"total_correct"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	CardsSeen     int           `json:"cards_seen"`
	AvgLatency    time.Duration `json:"avg_latency"`
}

// AccuracyPct is the rounded share of correct verdicts, 0 with no attempts.
func (p Performance) AccuracyPct() int {
	if p.TotalAttempts == 0 {
		return 0
	}
	return int(float64(p.TotalCorrect)/float64(p.TotalAttempts)*100 + 0.5)
}

// ClassCounts is the size of each classification set.
type ClassCounts struct {
	Mastered  int `json:"mastered"`
	Learning  int `json:"learning"`
	Difficult int `json:"difficult"`
}

// CardView is the presentation-safe form of the shown card. Answer is
// empty until revealed.
type CardView struct {
	ID              int    `json:"id"`
	Question        string `json:"question"`
	Answer          string `json:"answer,omitempty"`
	Revealed        bool   `json:"revealed"`
	Skippable       bool   `json:"skippable"`
	DifficultyLevel int    `json:"difficulty_level"`
	TotalSeen       int    `json:"total_seen"`
}

// Snapshot is the read model of a running session.
type Snapshot struct {
	SessionID       string        `json:"session_id"`
	PhaseIndex      int           `json:"phase_index"`
	PhaseName       string        `json:"phase_name"`
	PhaseRemaining  time.Duration `json:"phase_remaining"`
	PhaseProgress   float64       `json:"phase_progress"`
	OverallProgress float64       `json:"overall_progress"`
	SessionElapsed  time.Duration `json:"session_elapsed"`
	Slot            string        `json:"slot"`
	Card            *CardView     `json:"card,omitempty"`
	RemainingCards  int           `json:"remaining_cards"`
	TotalCards      int           `json:"total_cards"`
	Counts          ClassCounts   `json:"counts"`
	Performance     Performance   `json:"performance"`
	AccuracyPct     int           `json:"accuracy_pct"`
	LearningRate    float64       `json:"learning_rate"`
	Paused          bool          `json:"paused"`
	OnBreak         bool          `json:"on_break"`
	BreakRemaining  time.Duration `json:"break_remaining"`
	NextBreakIn     time.Duration `json:"next_break_in"`
	Completed       bool          `json:"completed"`
	Report          *Report       `json:"report,omitempty"`
}
