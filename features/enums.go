package features

import (
	"strings"

	"golang.org/x/text/cases"
)

type Gender string

const (
	Female Gender = "Female"
	Male   Gender = "Male"
)

type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// Frequency is the answer scale shared by CAEC (eating between meals) and
// CALC (alcohol).
type Frequency string

const (
	Always     Frequency = "Always"
	Frequently Frequency = "Frequently"
	Sometimes  Frequency = "Sometimes"
	Never      Frequency = "No"
)

type Transport string

const (
	Automobile           Transport = "Automobile"
	Bike                 Transport = "Bike"
	Motorbike            Transport = "Motorbike"
	PublicTransportation Transport = "Public Transportation"
	Walking              Transport = "Walking"
)

// Ordinal tables. The position of a label is its encoded value and must match
// the scheme the classifier was trained with.
var (
	GenderCodes    = []Gender{Female, Male}
	YesNoCodes     = []YesNo{No, Yes}
	FrequencyScale = []Frequency{Always, Frequently, Sometimes, Never}
	TransportModes = []Transport{Automobile, Bike, Motorbike, PublicTransportation, Walking}
)

func (g Gender) Code() (int, bool)    { return ordinal(GenderCodes, g) }
func (v YesNo) Code() (int, bool)     { return ordinal(YesNoCodes, v) }
func (f Frequency) Code() (int, bool) { return ordinal(FrequencyScale, f) }
func (t Transport) Code() (int, bool) { return ordinal(TransportModes, t) }

func DecodeGender(code int) (Gender, bool)       { return label(GenderCodes, code) }
func DecodeYesNo(code int) (YesNo, bool)         { return label(YesNoCodes, code) }
func DecodeFrequency(code int) (Frequency, bool) { return label(FrequencyScale, code) }
func DecodeTransport(code int) (Transport, bool) { return label(TransportModes, code) }

// ParseGender matches s against the form labels ignoring case and surrounding
// whitespace. The same holds for the other Parse functions.
func ParseGender(s string) (Gender, bool)       { return parse(GenderCodes, s) }
func ParseYesNo(s string) (YesNo, bool)         { return parse(YesNoCodes, s) }
func ParseFrequency(s string) (Frequency, bool) { return parse(FrequencyScale, s) }
func ParseTransport(s string) (Transport, bool) { return parse(TransportModes, s) }

func ordinal[T comparable](table []T, v T) (int, bool) {
	for i, candidate := range table {
		if candidate == v {
			return i, true
		}
	}
	return -1, false
}

func label[T any](table []T, code int) (T, bool) {
	var zero T
	if code < 0 || code >= len(table) {
		return zero, false
	}
	return table[code], true
}

func parse[T ~string](table []T, s string) (T, bool) {
	fold := cases.Fold()
	want := fold.String(strings.Join(strings.Fields(s), " "))
	for _, candidate := range table {
		if fold.String(string(candidate)) == want {
			return candidate, true
		}
	}
	var zero T
	return zero, false
}

// UnmarshalText normalises form labels while decoding JSON or YAML input.
// Unknown labels are kept verbatim so Encode can report them.
func (g *Gender) UnmarshalText(b []byte) error    { *g = normalise(GenderCodes, b); return nil }
func (v *YesNo) UnmarshalText(b []byte) error     { *v = normalise(YesNoCodes, b); return nil }
func (f *Frequency) UnmarshalText(b []byte) error { *f = normalise(FrequencyScale, b); return nil }
func (t *Transport) UnmarshalText(b []byte) error { *t = normalise(TransportModes, b); return nil }

func normalise[T ~string](table []T, b []byte) T {
	if v, ok := parse(table, string(b)); ok {
		return v
	}
	return T(b)
}
