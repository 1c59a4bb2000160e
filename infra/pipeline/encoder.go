package pipeline

import (
	"fmt"

	"github.com/kilianp07/metrotraffic/core/model"
)

// NumericColumn standardizes one numeric feature as (x-mean)/scale.
type NumericColumn struct {
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// CategoricalColumn one-hot encodes a feature over a fixed list of levels.
type CategoricalColumn struct {
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// Encoder turns a feature vector into the dense design row expected by the
// regressor. Numeric columns come first, then every categorical block.
type Encoder struct {
	Numeric     []NumericColumn     `json:"numeric"`
	Categorical []CategoricalColumn `json:"categorical"`
}

// Width is the number of columns produced by Encode.
func (e Encoder) Width() int {
	n := len(e.Numeric)
	for _, c := range e.Categorical {
		n += len(c.Levels)
	}
	return n
}

// Validate checks that every column refers to a known feature.
func (e Encoder) Validate() error {
	var probe model.Features
	for _, c := range e.Numeric {
		if _, ok := probe.Numeric(c.Name); !ok {
			return fmt.Errorf("encoder: unknown numeric feature %q", c.Name)
		}
		if c.Scale == 0 {
			return fmt.Errorf("encoder: zero scale for %q", c.Name)
		}
	}
	for _, c := range e.Categorical {
		if _, ok := probe.Category(c.Name); !ok {
			return fmt.Errorf("encoder: unknown categorical feature %q", c.Name)
		}
		if len(c.Levels) == 0 {
			return fmt.Errorf("encoder: no levels for %q", c.Name)
		}
	}
	if e.Width() == 0 {
		return fmt.Errorf("encoder: no columns")
	}
	return nil
}

// Encode writes the design row for f. Levels not seen during training leave
// their block at zero.
func (e Encoder) Encode(f model.Features) []float64 {
	row := make([]float64, 0, e.Width())
	for _, c := range e.Numeric {
		v, _ := f.Numeric(c.Name)
		row = append(row, (v-c.Mean)/c.Scale)
	}
	for _, c := range e.Categorical {
		level, _ := f.Category(c.Name)
		for _, l := range c.Levels {
			if l == level {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
	}
	return row
}
