package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bmipredict/features"
	"bmipredict/inference"
	"bmipredict/ml"
)

const answers = `
gender: Male
age: 25
height: 1.75
weight: 70
family_history_with_overweight: no
favc: no
fcvc: 2
ncp: 3
caec: Sometimes
smoke: no
ch2o: 2
scc: no
faf: 2
tue: 1
calc: Sometimes
mtrans: Public Transportation
`

func writeArtifacts(t *testing.T) (model, labelTable string) {
	t.Helper()
	dir := t.TempDir()

	tree, err := ml.NewDecisionTree([]ml.TreeNode{
		{FeatureIdx: features.FeatureCount - 1, Threshold: 25, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: []float64{8, 2}},
		{IsLeaf: true, Value: []float64{1, 9}},
	}, features.FeatureCount, 2)
	require.NoError(t, err)
	forest, err := ml.NewRandomForest([]*ml.DecisionTree{tree}, features.FeatureNames())
	require.NoError(t, err)

	model = filepath.Join(dir, "random_forest_model.json")
	require.NoError(t, forest.Save(model))

	labelTable = filepath.Join(dir, "label_mappings.json")
	require.NoError(t, os.WriteFile(labelTable, []byte(`{"NObeyesdad": {"Obesity_Type_I": 1, "Normal_Weight": 0}}`), 0o600))
	return model, labelTable
}

func TestRun(t *testing.T) {
	model, labelTable := writeArtifacts(t)

	var out bytes.Buffer
	err := run([]string{"-model", model, "-labels", labelTable}, strings.NewReader(answers), &out)
	require.NoError(t, err)
	require.Equal(t, "Normal Weight (80.00%)\n", out.String())
}

func TestRunVerboseFromFile(t *testing.T) {
	model, labelTable := writeArtifacts(t)
	input := filepath.Join(t.TempDir(), "answers.json")
	heavy := `{"gender":"Female","age":40,"height":1.6,"weight":95,"family_history_with_overweight":"yes",
		"favc":"yes","fcvc":2,"ncp":3,"caec":"Frequently","smoke":"no","ch2o":1.5,"scc":"no",
		"faf":0,"tue":1,"calc":"No","mtrans":"Automobile"}`
	require.NoError(t, os.WriteFile(input, []byte(heavy), 0o600))

	var out bytes.Buffer
	err := run([]string{"-model", model, "-labels", labelTable, "-input", input, "-v"}, nil, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "Obesity Type I (90.00%)", lines[0])
	require.Equal(t, "BMI 37.11", lines[1])
	require.Contains(t, lines[2], "Normal Weight")
	require.Contains(t, lines[3], "90.00%")
}

func TestRunErrors(t *testing.T) {
	model, labelTable := writeArtifacts(t)

	var out bytes.Buffer
	err := run([]string{"-model", model, "-labels", labelTable},
		strings.NewReader(strings.Replace(answers, "height: 1.75", "height: 0", 1)), &out)
	require.ErrorIs(t, err, features.ErrDomain)

	err = run([]string{"-model", filepath.Join(t.TempDir(), "missing.json"), "-labels", labelTable},
		strings.NewReader(answers), &out)
	require.ErrorIs(t, err, inference.ErrLoad)

	err = run([]string{"-model", model, "-labels", labelTable},
		strings.NewReader(answers+"shoe_size: 42\n"), &out)
	require.ErrorContains(t, err, "decode")

	require.Empty(t, out.String())
}
