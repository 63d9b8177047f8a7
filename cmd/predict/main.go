// Command predict scores one questionnaire read from a YAML or JSON file
// and prints the weight category with its confidence.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"bmipredict/config"
	"bmipredict/features"
	"bmipredict/inference"
	"bmipredict/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	configPath := flags.String("config", "", "service configuration (defaults apply when empty)")
	modelPath := flags.String("model", "", "classifier artifact, overrides model.path")
	labelsPath := flags.String("labels", "", "label table, overrides model.labels_path")
	inputPath := flags.String("input", "-", "questionnaire answers, YAML or JSON; - reads stdin")
	verbose := flags.Bool("v", false, "log loading and print every class probability")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *labelsPath != "" {
		cfg.Model.LabelsPath = *labelsPath
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = logging.New(cfg.LogOptions())
		defer logger.Sync()
	}

	raw, err := readInput(*inputPath, stdin)
	if err != nil {
		return err
	}

	settings := cfg.Inference()
	settings.CacheSize = 0
	adapter, err := inference.Initialize(settings, inference.WithLogger(logger))
	if err != nil {
		return err
	}
	prediction, record, err := adapter.PredictRaw(raw)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, prediction)
	if *verbose {
		fmt.Fprintf(stdout, "BMI %.2f\n", record.BMI)
		for i, p := range prediction.Probabilities {
			name, _ := adapter.Mapping().Name(i)
			fmt.Fprintf(stdout, "  %-22s %6.2f%%\n", name, p*100)
		}
	}
	return nil
}

func readInput(path string, stdin io.Reader) (features.RawInput, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return features.RawInput{}, err
	}

	// JSON documents are valid YAML, so one decoder serves both formats.
	var raw features.RawInput
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return features.RawInput{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return raw, nil
}
