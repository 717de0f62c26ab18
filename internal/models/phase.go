package models

import "time"

// Phase is one of the fixed, ordered learning stages of a session.
type Phase struct {
	Name                string  `json:"name"`
	ShareOfTotalTime    float64 `json:"share_of_total_time"`
	MinCorrectToAdvance int     `json:"min_correct_to_advance"`
}

// DefaultPhases is the seven-phase progression. Shares sum to 1.0.
var DefaultPhases = []Phase{
	{Name: "Initial Exposure", ShareOfTotalTime: 0.15, MinCorrectToAdvance: 1},
	{Name: "Immediate Recall", ShareOfTotalTime: 0.15, MinCorrectToAdvance: 1},
	{Name: "Short-Term Consolidation", ShareOfTotalTime: 0.15, MinCorrectToAdvance: 2},
	{Name: "Medium-Term Practice", ShareOfTotalTime: 0.15, MinCorrectToAdvance: 2},
	{Name: "Long-Term Reinforcement", ShareOfTotalTime: 0.15, MinCorrectToAdvance: 3},
	{Name: "Deep Encoding", ShareOfTotalTime: 0.15, MinCorrectToAdvance: 3},
	{Name: "Final Mastery Assessment", ShareOfTotalTime: 0.10, MinCorrectToAdvance: 1},
}

// Budget is the slice of a session of the given length allotted to this phase.
func (p Phase) Budget(totalHours float64) time.Duration {
	return time.Duration(totalHours * 3600 * p.ShareOfTotalTime * float64(time.Second))
}

// Classification is the mastery bucket a card currently belongs to.
type Classification string

const (
	ClassLearning  Classification = "learning"
	ClassDifficult Classification = "difficult"
	ClassMastered  Classification = "mastered"
)
