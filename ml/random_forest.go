package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the class distributions of its trees (soft voting).
// Predict is the arg-max of PredictProba, lowest index first on ties, so the
// predicted class always carries the largest probability.
type RandomForest struct {
	trees        []*DecisionTree
	nFeatures    int
	nClasses     int
	featureNames []string
}

func NewRandomForest(trees []*DecisionTree, featureNames []string) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest needs at least one tree")
	}
	for i, tree := range trees {
		if tree == nil {
			return nil, fmt.Errorf("tree %d is nil", i)
		}
	}
	nFeatures, nClasses := trees[0].nFeatures, trees[0].nClasses
	for i, tree := range trees {
		if tree.nFeatures != nFeatures || tree.nClasses != nClasses {
			return nil, fmt.Errorf("tree %d shape %dx%d differs from %dx%d", i, tree.nFeatures, tree.nClasses, nFeatures, nClasses)
		}
	}
	if len(featureNames) > 0 && len(featureNames) != nFeatures {
		return nil, fmt.Errorf("%d feature names for %d features", len(featureNames), nFeatures)
	}
	return &RandomForest{trees: trees, nFeatures: nFeatures, nClasses: nClasses, featureNames: featureNames}, nil
}

func (rf *RandomForest) NumFeatures() int { return rf.nFeatures }

func (rf *RandomForest) NumClasses() int { return rf.nClasses }

func (rf *RandomForest) NumTrees() int { return len(rf.trees) }

func (rf *RandomForest) FeatureNames() []string {
	return append([]string(nil), rf.featureNames...)
}

func (rf *RandomForest) Predict(features []float64) (int, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, ErrNotLoaded
	}
	proba := make([]float64, rf.nClasses)
	weight := 1 / float64(len(rf.trees))
	for _, tree := range rf.trees {
		leaf, err := tree.leaf(features)
		if err != nil {
			return nil, err
		}
		leaf.accumulate(proba, weight)
	}
	return proba, nil
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return ErrNotLoaded
	}
	artifact := &Artifact{
		ModelType:    ModelRandomForest,
		NFeatures:    rf.nFeatures,
		NClasses:     rf.nClasses,
		FeatureNames: rf.featureNames,
		Trees:        make([]TreeArtifact, len(rf.trees)),
	}
	for i, tree := range rf.trees {
		artifact.Trees[i] = TreeArtifact{Nodes: tree.nodes}
	}
	return writeArtifact(path, artifact)
}

func (rf *RandomForest) Load(path string) error {
	artifact, err := readArtifact(path)
	if err != nil {
		return err
	}
	trees := make([]*DecisionTree, len(artifact.Trees))
	for i, tree := range artifact.Trees {
		trees[i] = &DecisionTree{
			nodes:     tree.Nodes,
			nFeatures: artifact.NFeatures,
			nClasses:  artifact.NClasses,
		}
	}
	rf.trees = trees
	rf.nFeatures = artifact.NFeatures
	rf.nClasses = artifact.NClasses
	rf.featureNames = artifact.FeatureNames
	return nil
}
