// Package inference scores encoded questionnaire records with the loaded
// classifier and decodes the winning class into a category name.
package inference

import (
	"fmt"
	"math"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"bmipredict/features"
	"bmipredict/labels"
	"bmipredict/ml"
)

type Prediction struct {
	Category      string    `json:"category"`
	ClassIndex    int       `json:"class_index"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

// Percentage formats the confidence for display, e.g. "87.25".
func (p Prediction) Percentage() string {
	return fmt.Sprintf("%.2f", p.Confidence*100)
}

func (p Prediction) String() string {
	return fmt.Sprintf("%s (%s%%)", p.Category, p.Percentage())
}

type cacheKey [features.FeatureCount]uint64

// probabilityTolerance absorbs rounding when tree votes are averaged.
const probabilityTolerance = 1e-9

// Adapter is safe for concurrent use: the classifier and mapping are never
// mutated after construction and the optional cache is internally locked.
type Adapter struct {
	classifier ml.Classifier
	mapping    *labels.Mapping
	cache      *lru.Cache[cacheKey, Prediction]
	logger     *zap.Logger
	cacheSize  int
}

type Option func(*Adapter)

// WithCache memoises predictions for up to size distinct records.
func WithCache(size int) Option {
	return func(a *Adapter) { a.cacheSize = size }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// New checks that the classifier speaks the encoder's schema and that every
// class it can emit has a name.
func New(classifier ml.Classifier, mapping *labels.Mapping, opts ...Option) (*Adapter, error) {
	if classifier == nil || mapping == nil {
		return nil, fmt.Errorf("classifier and label mapping are required")
	}
	a := &Adapter{classifier: classifier, mapping: mapping, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	if n := classifier.NumFeatures(); n != features.FeatureCount {
		return nil, fmt.Errorf("classifier expects %d features, encoder produces %d", n, features.FeatureCount)
	}
	if namer, ok := classifier.(ml.FeatureNamer); ok {
		if names := namer.FeatureNames(); len(names) > 0 && !slices.Equal(names, features.FeatureNames()) {
			return nil, fmt.Errorf("classifier feature order %v does not match encoder order %v", names, features.FeatureNames())
		}
	}
	if classifier.NumClasses() != mapping.Len() {
		return nil, fmt.Errorf("classifier has %d classes, label mapping has %d", classifier.NumClasses(), mapping.Len())
	}

	if a.cacheSize > 0 {
		cache, err := lru.New[cacheKey, Prediction](a.cacheSize)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}
	return a, nil
}

func (a *Adapter) Mapping() *labels.Mapping { return a.mapping }

func (a *Adapter) Predict(record features.EncodedRecord) (Prediction, error) {
	vector := record.Vector()
	if a.cache == nil {
		return a.PredictVector(vector)
	}

	var key cacheKey
	for i, v := range vector {
		key[i] = math.Float64bits(v)
	}
	if cached, ok := a.cache.Get(key); ok {
		cached.Probabilities = slices.Clone(cached.Probabilities)
		return cached, nil
	}
	prediction, err := a.PredictVector(vector)
	if err != nil {
		return Prediction{}, err
	}
	stored := prediction
	stored.Probabilities = slices.Clone(prediction.Probabilities)
	a.cache.Add(key, stored)
	return prediction, nil
}

// PredictRaw encodes raw answers and scores them. Encoding failures are
// returned as *features.DomainError.
func (a *Adapter) PredictRaw(raw features.RawInput) (Prediction, features.EncodedRecord, error) {
	record, err := features.Encode(raw)
	if err != nil {
		return Prediction{}, features.EncodedRecord{}, err
	}
	prediction, err := a.Predict(record)
	return prediction, record, err
}

// PredictVector scores an already ordered feature vector.
func (a *Adapter) PredictVector(vector []float64) (Prediction, error) {
	if len(vector) != a.classifier.NumFeatures() {
		return Prediction{}, &PredictionError{
			Reason: fmt.Sprintf("record has %d fields, classifier expects %d", len(vector), a.classifier.NumFeatures()),
			Err:    ml.ErrFeatureShape,
		}
	}

	idx, err := a.classifier.Predict(vector)
	if err != nil {
		return Prediction{}, &PredictionError{Reason: "classifier predict", Err: err}
	}
	proba, err := a.classifier.PredictProba(vector)
	if err != nil {
		return Prediction{}, &PredictionError{Reason: "classifier predict_proba", Err: err}
	}
	if len(proba) != a.mapping.Len() {
		return Prediction{}, &PredictionError{Reason: fmt.Sprintf("distribution has %d classes, mapping has %d", len(proba), a.mapping.Len())}
	}
	name, ok := a.mapping.Name(idx)
	if !ok {
		return Prediction{}, &PredictionError{Reason: fmt.Sprintf("class index %d has no label", idx)}
	}
	for i, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1+probabilityTolerance {
			a.logger.Error("classifier returned an invalid probability",
				zap.Int("class", i), zap.Float64s("probabilities", proba))
			return Prediction{}, &PredictionError{Reason: fmt.Sprintf("probability %v of class %d is outside [0,1]", p, i)}
		}
		if p > 1 {
			proba[i] = 1
		}
	}
	for i, p := range proba {
		if p > proba[idx] {
			a.logger.Error("predicted class is not the most probable",
				zap.Int("predicted", idx), zap.Int("argmax", i), zap.Float64s("probabilities", proba))
			return Prediction{}, &PredictionError{Reason: fmt.Sprintf("class %d outranks predicted class %d", i, idx)}
		}
	}

	return Prediction{
		Category:      name,
		ClassIndex:    idx,
		Confidence:    proba[idx],
		Probabilities: proba,
	}, nil
}
