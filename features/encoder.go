// Package features turns the answers collected by the questionnaire into the
// fixed feature vector the weight-category classifier was trained on.
package features

import (
	"errors"
	"fmt"
	"math"
)

// FeatureCount is the width of the vector produced by EncodedRecord.Vector.
const FeatureCount = 16

var ErrDomain = errors.New("input outside encoder domain")

// DomainError reports a raw value that cannot be encoded, either because the
// transform is undefined for it (log of zero, division by zero) or because it
// is not one of the labels the encoder knows.
type DomainError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// RawInput holds the questionnaire answers as entered.
type RawInput struct {
	Gender                  Gender    `json:"gender" yaml:"gender"`
	Age                     int       `json:"age" yaml:"age"`
	Height                  float64   `json:"height" yaml:"height"`
	Weight                  float64   `json:"weight" yaml:"weight"`
	FamilyHistoryOverweight YesNo     `json:"family_history_with_overweight" yaml:"family_history_with_overweight"`
	FAVC                    YesNo     `json:"favc" yaml:"favc"`
	FCVC                    int       `json:"fcvc" yaml:"fcvc"`
	NCP                     int       `json:"ncp" yaml:"ncp"`
	CAEC                    Frequency `json:"caec" yaml:"caec"`
	SMOKE                   YesNo     `json:"smoke" yaml:"smoke"`
	CH2O                    float64   `json:"ch2o" yaml:"ch2o"`
	SCC                     YesNo     `json:"scc" yaml:"scc"`
	FAF                     int       `json:"faf" yaml:"faf"`
	TUE                     int       `json:"tue" yaml:"tue"`
	CALC                    Frequency `json:"calc" yaml:"calc"`
	MTRANS                  Transport `json:"mtrans" yaml:"mtrans"`
}

// EncodedRecord is one model-ready row. Field order follows the training
// columns; changing it requires retraining the classifier.
type EncodedRecord struct {
	Gender                      float64 `json:"Gender"`
	Age                         float64 `json:"Age"`
	Height                      float64 `json:"Height"`
	FamilyHistoryWithOverweight float64 `json:"family_history_with_overweight"`
	FAVC                        float64 `json:"FAVC"`
	FCVC                        float64 `json:"FCVC"`
	NCP                         float64 `json:"NCP"`
	CAEC                        float64 `json:"CAEC"`
	SMOKE                       float64 `json:"SMOKE"`
	CH2O                        float64 `json:"CH2O"`
	SCC                         float64 `json:"SCC"`
	FAF                         float64 `json:"FAF"`
	TUE                         float64 `json:"TUE"`
	CALC                        float64 `json:"CALC"`
	MTRANS                      float64 `json:"MTRANS"`
	BMI                         float64 `json:"BMI"`
}

func (r EncodedRecord) Vector() []float64 {
	return []float64{
		r.Gender,
		r.Age,
		r.Height,
		r.FamilyHistoryWithOverweight,
		r.FAVC,
		r.FCVC,
		r.NCP,
		r.CAEC,
		r.SMOKE,
		r.CH2O,
		r.SCC,
		r.FAF,
		r.TUE,
		r.CALC,
		r.MTRANS,
		r.BMI,
	}
}

func FeatureNames() []string {
	return []string{
		"Gender",
		"Age",
		"Height",
		"family_history_with_overweight",
		"FAVC",
		"FCVC",
		"NCP",
		"CAEC",
		"SMOKE",
		"CH2O",
		"SCC",
		"FAF",
		"TUE",
		"CALC",
		"MTRANS",
		"BMI",
	}
}

// Encode maps raw answers to an EncodedRecord. Age must be at least 1,
// Height strictly positive and the resulting BMI finite; range checks beyond
// that are left to the caller.
func Encode(raw RawInput) (EncodedRecord, error) {
	if raw.Age < 1 {
		return EncodedRecord{}, &DomainError{Field: "age", Value: raw.Age, Reason: "must be at least 1"}
	}
	if err := checkReal("height", raw.Height); err != nil {
		return EncodedRecord{}, err
	}
	if raw.Height <= 0 {
		return EncodedRecord{}, &DomainError{Field: "height", Value: raw.Height, Reason: "must be greater than 0"}
	}
	if err := checkReal("weight", raw.Weight); err != nil {
		return EncodedRecord{}, err
	}
	if raw.Weight < 0 {
		return EncodedRecord{}, &DomainError{Field: "weight", Value: raw.Weight, Reason: "must not be negative"}
	}
	if err := checkReal("ch2o", raw.CH2O); err != nil {
		return EncodedRecord{}, err
	}

	var (
		rec EncodedRecord
		bad error
	)
	code := func(field string, value interface{}, c int, ok bool) float64 {
		if !ok && bad == nil {
			bad = &DomainError{Field: field, Value: value, Reason: "unknown label"}
		}
		return float64(c)
	}

	g, ok := raw.Gender.Code()
	rec.Gender = code("gender", raw.Gender, g, ok)
	rec.Age = math.Log(float64(raw.Age))
	rec.Height = raw.Height
	fh, ok := raw.FamilyHistoryOverweight.Code()
	rec.FamilyHistoryWithOverweight = code("family_history_with_overweight", raw.FamilyHistoryOverweight, fh, ok)
	favc, ok := raw.FAVC.Code()
	rec.FAVC = code("favc", raw.FAVC, favc, ok)
	rec.FCVC = float64(raw.FCVC)
	rec.NCP = float64(raw.NCP)
	caec, ok := raw.CAEC.Code()
	rec.CAEC = code("caec", raw.CAEC, caec, ok)
	smoke, ok := raw.SMOKE.Code()
	rec.SMOKE = code("smoke", raw.SMOKE, smoke, ok)
	rec.CH2O = raw.CH2O
	scc, ok := raw.SCC.Code()
	rec.SCC = code("scc", raw.SCC, scc, ok)
	rec.FAF = float64(raw.FAF)
	rec.TUE = float64(raw.TUE)
	calc, ok := raw.CALC.Code()
	rec.CALC = code("calc", raw.CALC, calc, ok)
	mtrans, ok := raw.MTRANS.Code()
	rec.MTRANS = code("mtrans", raw.MTRANS, mtrans, ok)
	rec.BMI = BMI(raw.Weight, raw.Height)

	if bad != nil {
		return EncodedRecord{}, bad
	}
	// A tiny height or huge weight can overflow the ratio.
	if err := checkReal("bmi", rec.BMI); err != nil {
		return EncodedRecord{}, err
	}
	return rec, nil
}

// BMI is weight in kilograms over height in metres squared.
func BMI(weight, height float64) float64 {
	return weight / (height * height)
}

func checkReal(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &DomainError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	return nil
}
