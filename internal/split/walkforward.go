package split

import (
	"math"

	"energyforecast/pkg/contracts/domain"
)

// WalkForwardConfig configures an expanding-window split
type WalkForwardConfig struct {
	InitialTrainFrac float64 `json:"initial_train_frac" yaml:"initial_train_frac" envconfig:"INITIAL_TRAIN_FRAC"`
	ValFrac          float64 `json:"val_frac" yaml:"val_frac" envconfig:"VAL_FRAC"`
	NFolds           int     `json:"n_folds" yaml:"n_folds" envconfig:"N_FOLDS"`
}

// DefaultWalkForwardConfig returns half the history for the first fit and
// four validation windows of a tenth each.
func DefaultWalkForwardConfig() WalkForwardConfig {
	return WalkForwardConfig{
		InitialTrainFrac: 0.5,
		ValFrac:          0.1,
		NFolds:           4,
	}
}

// Validate checks the parameter ranges, in the order they are reported.
func (c WalkForwardConfig) Validate() error {
	if err := checkFraction("initial_train_frac", c.InitialTrainFrac); err != nil {
		return err
	}
	if err := checkFraction("val_frac", c.ValFrac); err != nil {
		return err
	}
	if c.NFolds < 1 {
		return &InvalidParameterError{Param: "n_folds", Value: c.NFolds, Reason: "must be at least 1"}
	}
	return nil
}

// Fold is one (train, validation) pair of a walk-forward run. It is immutable.
type Fold struct {
	index int
	train *domain.Table
	val   *domain.Table
}

// Index returns the 1-based fold number
func (f Fold) Index() int { return f.index }

// Train returns every row before the fold's validation window
func (f Fold) Train() *domain.Table { return f.train }

// Val returns the rows of the fold's validation window
func (f Fold) Val() *domain.Table { return f.val }

// WalkForward generates expanding-window folds over tbl ordered by timeField.
//
// The initial training size and the validation size are computed once from the
// full row count. Each fold validates on the rows immediately after its training
// window, and the next fold's training window absorbs that validation window.
// Generation stops early, without error, once a validation window would run past
// the end of the data; rows after the last validation window are left unassigned.
func WalkForward(tbl *domain.Table, timeField string, cfg WalkForwardConfig) ([]Fold, error) {
	if err := requireField(tbl.Fields(), timeField, tbl.HasField(timeField)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sorted := tbl.SortByTime(timeField)
	n := sorted.Len()

	trainEnd := int(math.Floor(float64(n) * cfg.InitialTrainFrac))
	valSize := int(math.Floor(float64(n) * cfg.ValFrac))

	if trainEnd <= 0 {
		return nil, &EmptyWindowError{Window: WindowTrain, Rows: n, Fraction: cfg.InitialTrainFrac}
	}
	if valSize <= 0 {
		return nil, &EmptyWindowError{Window: WindowValidation, Rows: n, Fraction: cfg.ValFrac}
	}

	initialTrain := trainEnd
	folds := make([]Fold, 0, cfg.NFolds)

	for i := 1; i <= cfg.NFolds; i++ {
		valStart, valEnd := trainEnd, trainEnd+valSize
		if valEnd > n {
			break
		}

		train := sorted.Slice(0, trainEnd)
		val := sorted.Slice(valStart, valEnd)
		if train.Len() == 0 || val.Len() == 0 {
			break
		}

		folds = append(folds, Fold{index: i, train: train, val: val})
		trainEnd = valEnd
	}

	if len(folds) == 0 {
		return nil, &NoFoldsProducedError{Rows: n, TrainSize: initialTrain, ValSize: valSize, NFolds: cfg.NFolds}
	}

	return folds, nil
}

// Unassigned returns how many of n rows fall after the last fold's validation window.
func Unassigned(n int, folds []Fold) int {
	if len(folds) == 0 {
		return n
	}
	last := folds[len(folds)-1]
	return n - last.train.Len() - last.val.Len()
}
