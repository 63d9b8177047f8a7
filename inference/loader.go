package inference

import (
	"sync"

	"go.uber.org/zap"

	"bmipredict/labels"
	"bmipredict/ml"
)

type Config struct {
	ModelType   string
	ModelPath   string
	LabelsPath  string
	LabelsTable string
	CacheSize   int
}

// Initialize reads the classifier artifact and the label table and wires
// them into an Adapter. Every failure is a *LoadError.
func Initialize(cfg Config, opts ...Option) (*Adapter, error) {
	classifier, err := ml.LoadModel(cfg.ModelType, cfg.ModelPath)
	if err != nil {
		return nil, &LoadError{Resource: "model", Path: cfg.ModelPath, Err: err}
	}
	mapping, err := labels.Load(cfg.LabelsPath, cfg.LabelsTable)
	if err != nil {
		return nil, &LoadError{Resource: "labels", Path: cfg.LabelsPath, Err: err}
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, WithCache(cfg.CacheSize))
	}
	adapter, err := New(classifier, mapping, opts...)
	if err != nil {
		return nil, &LoadError{Resource: "model", Path: cfg.ModelPath, Err: err}
	}

	fields := []zap.Field{
		zap.String("model_type", cfg.ModelType),
		zap.String("model_path", cfg.ModelPath),
		zap.Int("classes", mapping.Len()),
		zap.Strings("categories", mapping.Names()),
	}
	if forest, ok := classifier.(*ml.RandomForest); ok {
		fields = append(fields, zap.Int("trees", forest.NumTrees()))
	}
	adapter.logger.Info("classifier ready", fields...)
	return adapter, nil
}

// Loader performs Initialize at most once per process. Concurrent callers
// block until the first load finishes and then share its outcome; a failed
// load is not retried.
type Loader struct {
	cfg  Config
	opts []Option

	once    sync.Once
	adapter *Adapter
	err     error
}

func NewLoader(cfg Config, opts ...Option) *Loader {
	return &Loader{cfg: cfg, opts: opts}
}

func (l *Loader) Load() (*Adapter, error) {
	l.once.Do(func() {
		l.adapter, l.err = Initialize(l.cfg, l.opts...)
	})
	return l.adapter, l.err
}
