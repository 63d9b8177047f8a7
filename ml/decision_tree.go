package ml

import (
	"errors"
	"fmt"
)

type DecisionTree struct {
	nodes        []TreeNode
	nFeatures    int
	nClasses     int
	featureNames []string
}

// TreeNode is one entry of the flat node array. Leaves carry per-class
// weights in Value (sample counts or fractions); a leaf without Value votes
// for ClassLabel alone.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassLabel int       `json:"class_label"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

// NewDecisionTree builds a tree from an in-memory node array.
func NewDecisionTree(nodes []TreeNode, nFeatures, nClasses int) (*DecisionTree, error) {
	if nFeatures <= 0 || nClasses <= 0 {
		return nil, errors.New("feature and class counts must be positive")
	}
	if err := validateNodes(nodes, nFeatures, nClasses); err != nil {
		return nil, err
	}
	return &DecisionTree{nodes: nodes, nFeatures: nFeatures, nClasses: nClasses}, nil
}

func (dt *DecisionTree) NumFeatures() int { return dt.nFeatures }

func (dt *DecisionTree) NumClasses() int { return dt.nClasses }

func (dt *DecisionTree) FeatureNames() []string {
	return append([]string(nil), dt.featureNames...)
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	proba, err := dt.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	proba := make([]float64, dt.nClasses)
	leaf.accumulate(proba, 1)
	return proba, nil
}

func (dt *DecisionTree) leaf(features []float64) (*TreeNode, error) {
	if len(dt.nodes) == 0 {
		return nil, ErrNotLoaded
	}
	if len(features) != dt.nFeatures {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrFeatureShape, len(features), dt.nFeatures)
	}
	idx := 0
	for {
		node := &dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// accumulate adds the leaf's normalised class distribution, scaled by
// weight, into dst.
func (n *TreeNode) accumulate(dst []float64, weight float64) {
	if len(n.Value) == 0 {
		dst[n.ClassLabel] += weight
		return
	}
	total := 0.0
	for _, v := range n.Value {
		total += v
	}
	for i, v := range n.Value {
		dst[i] += weight * v / total
	}
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotLoaded
	}
	return writeArtifact(path, &Artifact{
		ModelType:    ModelDecisionTree,
		NFeatures:    dt.nFeatures,
		NClasses:     dt.nClasses,
		FeatureNames: dt.featureNames,
		Trees:        []TreeArtifact{{Nodes: dt.nodes}},
	})
}

func (dt *DecisionTree) Load(path string) error {
	artifact, err := readArtifact(path)
	if err != nil {
		return err
	}
	if len(artifact.Trees) != 1 {
		return fmt.Errorf("decision tree artifact holds %d trees", len(artifact.Trees))
	}
	dt.nodes = artifact.Trees[0].Nodes
	dt.nFeatures = artifact.NFeatures
	dt.nClasses = artifact.NClasses
	dt.featureNames = artifact.FeatureNames
	return nil
}
