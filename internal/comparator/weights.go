package comparator

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Weights are the trained parameters of the siamese comparator, keyed the way a PyTorch
// state_dict of the two linear layers exports to JSON.
type Weights struct {
	FC1Weight [][]float64 `json:"fc1.weight"` // hidden x input
	FC1Bias   []float64   `json:"fc1.bias"`   // hidden
	FC2Weight [][]float64 `json:"fc2.weight"` // 1 x hidden
	FC2Bias   []float64   `json:"fc2.bias"`   // 1
}

// Load reads a JSON weights artifact and builds a Comparator from it.
func Load(path string) (*Comparator, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read weights %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("weights %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a Comparator from a JSON weights document.
func Parse(data []byte) (*Comparator, error) {
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return New(w)
}

// validate checks layer shapes and returns (input, hidden) dimensions.
func (w *Weights) validate() (int, int, error) {
	hidden := len(w.FC1Weight)
	if hidden == 0 {
		return 0, 0, fmt.Errorf("fc1.weight is empty")
	}
	input := len(w.FC1Weight[0])
	if input == 0 {
		return 0, 0, fmt.Errorf("fc1.weight has zero columns")
	}
	for i, row := range w.FC1Weight {
		if len(row) != input {
			return 0, 0, fmt.Errorf("fc1.weight row %d has %d columns, want %d", i, len(row), input)
		}
		if err := checkFinite("fc1.weight", row); err != nil {
			return 0, 0, err
		}
	}
	if len(w.FC1Bias) != hidden {
		return 0, 0, fmt.Errorf("fc1.bias has %d elements, want %d", len(w.FC1Bias), hidden)
	}
	if len(w.FC2Weight) != 1 || len(w.FC2Weight[0]) != hidden {
		return 0, 0, fmt.Errorf("fc2.weight must be 1x%d", hidden)
	}
	if len(w.FC2Bias) != 1 {
		return 0, 0, fmt.Errorf("fc2.bias has %d elements, want 1", len(w.FC2Bias))
	}
	for name, v := range map[string][]float64{
		"fc1.bias":   w.FC1Bias,
		"fc2.weight": w.FC2Weight[0],
		"fc2.bias":   w.FC2Bias,
	} {
		if err := checkFinite(name, v); err != nil {
			return 0, 0, err
		}
	}
	return input, hidden, nil
}

func checkFinite(name string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%s[%d] is not finite", name, i)
		}
	}
	return nil
}
