package contracts

import (
	"encoding/json"
	"time"
)

// SourceValidation annotates one (ticker, source) pull
type SourceValidation struct {
	IsValid      bool    `json:"is_valid"`
	QualityScore float64 `json:"quality_score"`
	RecordCount  int     `json:"record_count"`
	Completeness float64 `json:"completeness"`
}

// AcquisitionMetadata describes an acquisition run
type AcquisitionMetadata struct {
	ProcessedTickers []string  `json:"processed_tickers"`
	SourcesUsed      []string  `json:"sources_used"`
	AcquisitionTime  time.Time `json:"acquisition_time"`
	TotalRecords     int       `json:"total_records"`
}

// AcquisitionOutput is the section written by the acquisition stage
type AcquisitionOutput struct {
	RawData    map[string]map[string]*SourcedDataset
	Metadata   AcquisitionMetadata
	Validation map[string]map[string]SourceValidation
}

// ProcessedValidation annotates one processed ticker
type ProcessedValidation struct {
	IsValid       bool    `json:"is_valid"`
	QualityScore  float64 `json:"quality_score"`
	FeatureCount  int     `json:"feature_count"`
	DataIntegrity bool    `json:"data_integrity"`
}

// ProcessingMetadata describes a processing run
type ProcessingMetadata struct {
	ProcessedTickers []string  `json:"processed_tickers"`
	ProcessingTime   time.Time `json:"processing_time"`
	TotalFeatures    int       `json:"total_features"`
}

// ProcessingOutput is the section written by the processing stage
type ProcessingOutput struct {
	ProcessedData map[string]*ProcessedDataset
	Metadata      ProcessingMetadata
	Validation    map[string]ProcessedValidation
}

// AnalysisValidation annotates one analyzed ticker. Each check stands alone.
type AnalysisValidation struct {
	HasIndicators    bool `json:"has_indicators"`
	HasSignals       bool `json:"has_signals"`
	HasRiskMetrics   bool `json:"has_risk_metrics"`
	AnalysisComplete bool `json:"analysis_complete"`
}

// AnalysisMetadata describes an analysis run
type AnalysisMetadata struct {
	AnalyzedTickers      []string  `json:"analyzed_tickers"`
	AnalysisTime         time.Time `json:"analysis_time"`
	IndicatorsCalculated int       `json:"indicators_calculated"`
}

// AnalysisOutput is the section written by the analysis stage
type AnalysisOutput struct {
	Results    map[string]*TickerAnalysis
	Metadata   AnalysisMetadata
	Validation map[string]AnalysisValidation
}

// InsightsValidation annotates the insight output as a whole
type InsightsValidation struct {
	HasInsights          bool   `json:"has_insights"`
	HasPortfolioInsights bool   `json:"has_portfolio_insights"`
	HasFinalReport       bool   `json:"has_final_report"`
	InsightQuality       string `json:"insight_quality"`
}

// InsightMetadata describes an insight run
type InsightMetadata struct {
	GeneratedInsights int       `json:"generated_insights"`
	GenerationTime    time.Time `json:"generation_time"`
	ReportFormat      string    `json:"report_format"`
}

// InsightOutput is the section written by the insight stage
type InsightOutput struct {
	Insights    map[string]*TickerInsight
	Portfolio   *PortfolioInsights
	FinalReport *FinalReport
	Metadata    InsightMetadata
	Validation  *InsightsValidation
}

// PipelineContext is the aggregate threaded through all stages.
// Only the orchestrator drives it and only one stage writes at a time.
// A nil section means the producing stage never started.
type PipelineContext struct {
	RunID  string
	Config PipelineConfig

	Acquisition *AcquisitionOutput
	Processing  *ProcessingOutput
	Analysis    *AnalysisOutput
	Insight     *InsightOutput

	Errors    []StageError
	Execution *PipelineExecution
}

// NewPipelineContext starts a context from a private copy of cfg
func NewPipelineContext(runID string, cfg PipelineConfig) *PipelineContext {
	return &PipelineContext{RunID: runID, Config: cfg.Clone()}
}

// Success reports the terminal success flag, false before the run finished
func (pc *PipelineContext) Success() bool {
	return pc.Execution != nil && pc.Execution.Success
}

// MarshalJSON flattens the sections into the documented output keys
func (pc *PipelineContext) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"run_id": pc.RunID,
		"config": pc.Config,
	}

	if a := pc.Acquisition; a != nil {
		out["raw_data"] = a.RawData
		out["acquisition_metadata"] = a.Metadata
		out["validation"] = a.Validation
	}
	if p := pc.Processing; p != nil {
		out["processed_data"] = p.ProcessedData
		out["processing_metadata"] = p.Metadata
		out["processed_validation"] = p.Validation
	}
	if a := pc.Analysis; a != nil {
		out["analysis_results"] = a.Results
		out["analysis_metadata"] = a.Metadata
		out["analysis_validation"] = a.Validation
	}
	if i := pc.Insight; i != nil {
		out["insights"] = i.Insights
		out["portfolio_insights"] = i.Portfolio
		out["final_report"] = i.FinalReport
		out["insight_metadata"] = i.Metadata
		out["insights_validation"] = i.Validation
	}
	if len(pc.Errors) > 0 {
		out["pipeline_errors"] = pc.Errors
	}
	if pc.Execution != nil {
		out["pipeline_execution"] = pc.Execution
	}

	return json.Marshal(out)
}
