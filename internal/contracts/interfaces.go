package contracts

import "context"

// Stage is one step of the pipeline.
// Process writes the stage's section of the context; Validate annotates it in place.
// Both report through Outcome and may leave partial data behind on failure.
type Stage interface {
	Name() string
	Process(ctx context.Context, pc *PipelineContext) Outcome
	Validate(ctx context.Context, pc *PipelineContext) Outcome
}

// Stage names, in execution order
const (
	StageAcquisition = "Data Acquisition"
	StageProcessing  = "Data Processing"
	StageAnalysis    = "Technical Analysis"
	StageInsight     = "Insight Generation"
)

// StageNames lists the default stage order
func StageNames() []string {
	return []string{StageAcquisition, StageProcessing, StageAnalysis, StageInsight}
}
