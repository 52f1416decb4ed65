package services

import (
	"time"

	"energyforecast/internal/evaluate"
	"energyforecast/internal/split"
	"energyforecast/pkg/contracts/domain"
)

// Partition names used in reports
const (
	PartitionTrain = "train"
	PartitionVal   = "val"
	PartitionTest  = "test"
)

// PartitionSummary describes one output table of a split
type PartitionSummary struct {
	Name  string     `json:"name"`
	Rows  int        `json:"rows"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	// Baseline scores the {target}_lag_1 column as a persistence forecast.
	// Nil for training partitions and when no row has both values.
	Baseline *evaluate.Score `json:"baseline,omitempty"`
}

// FoldSummary describes one walk-forward fold
type FoldSummary struct {
	Index int              `json:"index"`
	Train PartitionSummary `json:"train"`
	Val   PartitionSummary `json:"val"`
}

// PrepareReport is the result document of one preparation run
type PrepareReport struct {
	RunID         string    `json:"run_id"`
	FormatVersion string    `json:"format_version"`
	Dataset       string    `json:"dataset"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    float64   `json:"duration_ms"`

	Mode      string `json:"mode"`
	TimeField string `json:"time_field"`
	Target    string `json:"target"`

	Rows          int      `json:"rows"`
	Fields        []string `json:"fields"`
	FeatureFields []string `json:"feature_fields"`

	Boundaries  *split.Boundaries        `json:"boundaries,omitempty"`
	WalkForward *split.WalkForwardConfig `json:"walk_forward,omitempty"`

	Partitions []PartitionSummary `json:"partitions,omitempty"`
	Folds      []FoldSummary      `json:"folds,omitempty"`
	Unassigned int                `json:"unassigned"`

	ReportPath string `json:"report_path,omitempty"`
}

// summarize counts tbl's rows and finds its first and last timestamps.
// Partitions are sorted with missing timestamps last, so both ends are scanned.
func summarize(name string, tbl *domain.Table, timeField string) PartitionSummary {
	s := PartitionSummary{Name: name, Rows: tbl.Len()}

	for i := 0; i < tbl.Len(); i++ {
		if ts, ok := tbl.Time(i, timeField); ok {
			s.Start = &ts
			break
		}
	}
	for i := tbl.Len() - 1; i >= 0; i-- {
		if ts, ok := tbl.Time(i, timeField); ok {
			s.End = &ts
			break
		}
	}
	return s
}
