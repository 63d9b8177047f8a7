package ml

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// stump splits on feature 0 at 0.5: left leaf favours class 0, right leaf class 2.
func stump(t *testing.T, left, right []float64) *DecisionTree {
	t.Helper()
	tree, err := NewDecisionTree([]TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: left},
		{IsLeaf: true, Value: right},
	}, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree
}

func TestDecisionTreePredict(t *testing.T) {
	tree := stump(t, []float64{8, 2, 0}, []float64{0, 1, 3})

	label, err := tree.Predict([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}

	proba, err := tree.PredictProba([]float64{0.9, 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []float64{0, 0.25, 0.75}
	for i := range expected {
		if math.Abs(proba[i]-expected[i]) > 1e-9 {
			t.Fatalf("unexpected distribution: %v", proba)
		}
	}
}

func TestDecisionTreeClassLabelLeaf(t *testing.T) {
	tree, err := NewDecisionTree([]TreeNode{{IsLeaf: true, ClassLabel: 1}}, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := tree.PredictProba([]float64{42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[0] != 0 || proba[1] != 1 {
		t.Fatalf("expected one-hot distribution, got %v", proba)
	}
}

func TestDecisionTreeShapeMismatch(t *testing.T) {
	tree := stump(t, []float64{1, 0, 0}, []float64{0, 0, 1})
	if _, err := tree.Predict([]float64{0.1}); !errors.Is(err, ErrFeatureShape) {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestDecisionTreeRejectsMalformedNodes(t *testing.T) {
	cases := map[string][]TreeNode{
		"empty":          nil,
		"backward child": {{FeatureIdx: 0, LeftChild: 0, RightChild: 1}, {IsLeaf: true, ClassLabel: 0}},
		"feature range":  {{FeatureIdx: 5, LeftChild: 1, RightChild: 2}, {IsLeaf: true}, {IsLeaf: true}},
		"value width":    {{IsLeaf: true, Value: []float64{1}}},
		"class range":    {{IsLeaf: true, ClassLabel: 7}},
		"zero leaf":      {{IsLeaf: true, Value: []float64{0, 0}}},
	}
	for name, nodes := range cases {
		if _, err := NewDecisionTree(nodes, 2, 2); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	tree := stump(t, []float64{3, 1, 0}, []float64{0, 1, 3})
	path := filepath.Join(t.TempDir(), "dt.json")
	if err := tree.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	model, err := LoadModel(ModelDecisionTree, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.NumFeatures() != 2 || model.NumClasses() != 3 {
		t.Fatalf("unexpected shape %dx%d", model.NumFeatures(), model.NumClasses())
	}
	label, err := model.Predict([]float64{0.7, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 2 {
		t.Fatalf("expected label 2, got %d", label)
	}
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadModel(ModelRandomForest, filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(ModelRandomForest, corrupt); err == nil {
		t.Fatal("expected decode error")
	}

	if _, err := LoadModel("svm", corrupt); err == nil {
		t.Fatal("expected unsupported model type error")
	}
}
