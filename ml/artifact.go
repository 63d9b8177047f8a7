package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Artifact is the on-disk form of a tree model. A decision tree is stored as
// an artifact holding a single tree.
type Artifact struct {
	ModelType    string         `json:"model_type"`
	NFeatures    int            `json:"n_features"`
	NClasses     int            `json:"n_classes"`
	FeatureNames []string       `json:"feature_names,omitempty"`
	Trees        []TreeArtifact `json:"trees"`
}

type TreeArtifact struct {
	Nodes []TreeNode `json:"nodes"`
}

func readArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := artifact.validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return &artifact, nil
}

func writeArtifact(path string, artifact *Artifact) error {
	if err := artifact.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (a *Artifact) validate() error {
	if a.NFeatures <= 0 {
		return errors.New("n_features must be positive")
	}
	if a.NClasses <= 0 {
		return errors.New("n_classes must be positive")
	}
	if len(a.FeatureNames) > 0 && len(a.FeatureNames) != a.NFeatures {
		return fmt.Errorf("%d feature names for %d features", len(a.FeatureNames), a.NFeatures)
	}
	if len(a.Trees) == 0 {
		return errors.New("no trees")
	}
	for i, tree := range a.Trees {
		if err := validateNodes(tree.Nodes, a.NFeatures, a.NClasses); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// validateNodes checks the flat pre-order layout: every child index points
// past its parent, so traversal always terminates.
func validateNodes(nodes []TreeNode, nFeatures, nClasses int) error {
	if len(nodes) == 0 {
		return errors.New("empty tree")
	}
	for idx, node := range nodes {
		if node.IsLeaf {
			if len(node.Value) == 0 {
				if node.ClassLabel < 0 || node.ClassLabel >= nClasses {
					return fmt.Errorf("node %d: class label %d out of range", idx, node.ClassLabel)
				}
				continue
			}
			if len(node.Value) != nClasses {
				return fmt.Errorf("node %d: %d values for %d classes", idx, len(node.Value), nClasses)
			}
			total := 0.0
			for _, v := range node.Value {
				if v < 0 {
					return fmt.Errorf("node %d: negative class weight", idx)
				}
				total += v
			}
			if total == 0 {
				return fmt.Errorf("node %d: empty leaf", idx)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", idx, node.FeatureIdx)
		}
		if node.LeftChild <= idx || node.LeftChild >= len(nodes) {
			return fmt.Errorf("node %d: invalid left child %d", idx, node.LeftChild)
		}
		if node.RightChild <= idx || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: invalid right child %d", idx, node.RightChild)
		}
	}
	return nil
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
