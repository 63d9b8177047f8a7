package ml

import (
	"fmt"
)

const (
	ModelRandomForest = "random_forest"
	ModelDecisionTree = "decision_tree"
)

func LoadModel(modelType, path string) (Classifier, error) {
	switch modelType {
	case ModelRandomForest, "":
		model := &RandomForest{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case ModelDecisionTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
