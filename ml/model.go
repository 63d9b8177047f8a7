package ml

import "errors"

var (
	ErrFeatureShape = errors.New("feature vector shape mismatch")
	ErrNotLoaded    = errors.New("model not loaded")
)

// Classifier is the scoring contract of a pre-trained model artifact.
// Implementations are read-only once loaded and safe for concurrent use.
type Classifier interface {
	NumFeatures() int
	NumClasses() int
	// Predict returns the index of the winning class.
	Predict(features []float64) (int, error)
	// PredictProba returns one probability per class, summing to 1.
	PredictProba(features []float64) ([]float64, error)
}

// FeatureNamer is implemented by artifacts that record the column names they
// were trained on.
type FeatureNamer interface {
	FeatureNames() []string
}
