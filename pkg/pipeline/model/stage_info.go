package model

// StageInfo describes a stage of a pipeline at a given time.
type StageInfo struct {
	Name  string
	Type  string
	Index int
}

// Boundary stages used when drawing a pipeline.
var (
	StartStage = StageInfo{Name: "start", Index: -1}
	EndStage   = StageInfo{Name: "end", Index: -1}
)
