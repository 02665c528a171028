package measure

import "time"

// Measure collects one Metric per pipeline stage, keyed by stage name.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
	// Names returns the stage names in the order their metric was added.
	Names() []string
	SetTotalDuration(total time.Duration)
	GetTotalDuration() time.Duration
}

// Metric records the computation time of one stage.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	LastDuration() time.Duration
	Count() int64
}
