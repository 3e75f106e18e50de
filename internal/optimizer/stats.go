package optimizer

import "gonum.org/v1/gonum/stat"

const statsWindow = 256

// Stats summarizes an optimizer run.
type Stats struct {
	Steps        int     `json:"steps"`
	Improvements int     `json:"improvements"`
	Resets       int     `json:"resets"`
	RecentMean   float64 `json:"recent_mean"`
	RecentStdDev float64 `json:"recent_stddev"`
}

// runStats keeps counters and a ring of recent global errors.
type runStats struct {
	steps        int
	improvements int
	resets       int
	recent       []float64
	next         int
}

func newRunStats(window int) *runStats {
	return &runStats{recent: make([]float64, 0, window)}
}

func (s *runStats) add(e float64) {
	s.steps++
	if len(s.recent) < cap(s.recent) {
		s.recent = append(s.recent, e)
		return
	}
	s.recent[s.next] = e
	s.next = (s.next + 1) % len(s.recent)
}

// Stats returns counters and the mean and standard deviation of the most
// recent global errors.
func (o *Optimizer) Stats() Stats {
	st := Stats{
		Steps:        o.stats.steps,
		Improvements: o.stats.improvements,
		Resets:       o.stats.resets,
	}
	switch len(o.stats.recent) {
	case 0:
	case 1:
		st.RecentMean = o.stats.recent[0]
	default:
		st.RecentMean, st.RecentStdDev = stat.MeanStdDev(o.stats.recent, nil)
	}
	return st
}
