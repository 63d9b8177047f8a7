package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bmipredict/features"
	"bmipredict/inference"
)

func TestStoreSaveAndQuery(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "data", "predictions.db"))
	require.NoError(t, err)
	defer store.Close()

	record := features.EncodedRecord{Gender: 1, Age: 3.2189, Height: 1.75, MTRANS: 4, BMI: 22.857}
	first, err := store.SavePrediction(record, inference.Prediction{Category: "Normal Weight", ClassIndex: 1, Confidence: 0.7})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := store.SavePrediction(record, inference.Prediction{Category: "Obesity Type I", ClassIndex: 2, Confidence: 0.8})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	logs, err := store.RecentPredictions(10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, second.ID, logs[0].ID)
	require.Equal(t, "Obesity Type I", logs[0].Category)
	require.Equal(t, record, logs[1].Record)
	require.InDelta(t, 22.857, logs[1].BMI, 1e-9)

	limited, err := store.RecentPredictions(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	counts, err := store.CategoryCounts()
	require.NoError(t, err)
	require.Equal(t, map[string]int{"Normal Weight": 1, "Obesity Type I": 1}, counts)
}

func TestNilStore(t *testing.T) {
	var store *Store
	_, err := store.RecentPredictions(5)
	require.Error(t, err)
	require.NoError(t, store.Close())
}
