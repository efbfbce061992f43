package features

import (
	"encoding/json"
	"fmt"
	"slices"
)

// UnknownCode is returned by Encode for identifiers absent at fit time.
// It never collides with a valid code, which are 0..Len()-1.
const UnknownCode = -1

// Encoder maps product identifiers to dense integer codes.
// Codes follow the lexicographic order of the fit-time identifiers.
type Encoder struct {
	classes []string
	index   map[string]int
}

// FitEncoder builds an encoder over the distinct values of ids.
func FitEncoder(ids []string) *Encoder {
	classes := slices.Clone(ids)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	return newEncoder(classes)
}

func newEncoder(classes []string) *Encoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &Encoder{classes: classes, index: index}
}

// Encode returns the code for id, or UnknownCode.
func (e *Encoder) Encode(id string) int {
	if code, ok := e.index[id]; ok {
		return code
	}
	return UnknownCode
}

// Known reports whether id was present at fit time.
func (e *Encoder) Known(id string) bool {
	_, ok := e.index[id]
	return ok
}

// Decode returns the identifier for a valid code.
func (e *Encoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.classes) {
		return "", false
	}
	return e.classes[code], true
}

// Classes returns a copy of the fit-time identifiers in code order.
func (e *Encoder) Classes() []string {
	return slices.Clone(e.classes)
}

// Len returns the number of known identifiers.
func (e *Encoder) Len() int {
	return len(e.classes)
}

type encoderJSON struct {
	Classes []string `json:"classes"`
}

func (e *Encoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(encoderJSON{Classes: e.classes})
}

func (e *Encoder) UnmarshalJSON(data []byte) error {
	var v encoderJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v.Classes) == 0 {
		return fmt.Errorf("%w: encoder has no classes", ErrInvalidArtifact)
	}
	if !slices.IsSorted(v.Classes) || len(slices.Compact(slices.Clone(v.Classes))) != len(v.Classes) {
		return fmt.Errorf("%w: encoder classes must be sorted and distinct", ErrInvalidArtifact)
	}
	*e = *newEncoder(v.Classes)
	return nil
}
