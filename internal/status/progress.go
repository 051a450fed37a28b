package status

import "time"

// Progress simulation constants. The backend exposes no real progress
// signal, so while Evaluating the UI advances a cosmetic value derived from
// elapsed time, capped below completion until a fetch reports completed.
const (
	// SimulatedStep is the percentage gained per elapsed second.
	SimulatedStep = 5
	// SimulatedCap is the ceiling for simulated progress. The value snaps to
	// 100 only on an authoritative completed status.
	SimulatedCap = 95
)

// Progress is a display progress value for a submission. Simulated values
// are cosmetic only and must never be treated as authoritative.
type Progress struct {
	Percent   int  `json:"percent"`
	Simulated bool `json:"simulated"`
}

// SimulatePercent computes the cosmetic progress for an evaluation that
// started at the given instant.
func SimulatePercent(startedAt, now time.Time) int {
	if !now.After(startedAt) {
		return 0
	}
	percent := int(now.Sub(startedAt)/time.Second) * SimulatedStep
	if percent > SimulatedCap {
		return SimulatedCap
	}
	return percent
}

// ProgressFor maps a state to its display progress. The startedAt marker is
// only consulted while Evaluating; when it is unknown the simulation starts
// from zero on the caller's clock.
func ProgressFor(state State, startedAt *time.Time, now time.Time) Progress {
	switch state {
	case Evaluating:
		if startedAt == nil {
			return Progress{Percent: 0, Simulated: true}
		}
		return Progress{Percent: SimulatePercent(*startedAt, now), Simulated: true}
	case AwaitingReview, Approved:
		return Progress{Percent: 100}
	default:
		return Progress{Percent: 0}
	}
}
