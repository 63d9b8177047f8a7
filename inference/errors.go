package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad marks a missing or corrupt classifier artifact or label table.
	// It is fatal: no prediction can be served without both.
	ErrLoad = errors.New("inference artifacts unavailable")
	// ErrPrediction marks an encoder/artifact disagreement detected while
	// scoring. It is a programming error and must not be retried.
	ErrPrediction = errors.New("prediction failed")
)

type LoadError struct {
	Resource string // "model" or "labels"
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Resource, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

type PredictionError struct {
	Reason string
	Err    error
}

func (e *PredictionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction: %s: %v", e.Reason, e.Err)
	}
	return "prediction: " + e.Reason
}

func (e *PredictionError) Unwrap() error { return e.Err }

func (e *PredictionError) Is(target error) bool { return target == ErrPrediction }
