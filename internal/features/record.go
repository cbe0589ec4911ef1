package features

import (
	"encoding/json"
	"fmt"
	"math"
)

// Ratio is a non-negative ratio that may be +Inf. Infinity is encoded as the
// JSON string "Infinity" so records stay valid JSON.
type Ratio float64

const infinityLiteral = "Infinity"

// Inf is the infinite ratio sentinel
func Inf() Ratio {
	return Ratio(math.Inf(1))
}

// IsInf reports whether r is the infinite sentinel
func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return json.Marshal(infinityLiteral)
	}
	if math.IsNaN(float64(r)) || float64(r) < 0 {
		return nil, fmt.Errorf("invalid ratio %v", float64(r))
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != infinityLiteral {
			return fmt.Errorf("invalid ratio literal %q", s)
		}
		*r = Inf()
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid ratio: %w", err)
	}
	*r = Ratio(f)
	return nil
}

// Record is the per-video feature summary. All fields are always emitted.
type Record struct {
	HardCuts          int     `json:"hard_cuts"`
	AverageMotion     float64 `json:"average_motion"`
	PersonObjectRatio Ratio   `json:"person_object_ratio"`
}

// ZeroRecord is returned for clips with fewer than two sampled frames
func ZeroRecord() Record {
	return Record{}
}

// JSON renders the record with 2-space indentation
func (r Record) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
