package comparator

// Sample weight constants. Identical inputs score sigmoid(sampleBias) ≈ 0.982 and every unit
// of absolute projected difference lowers the logit by one.
const (
	sampleScale = 5.0
	sampleBias  = 4.0
)

// SampleWeights returns deterministic weights for local runs and tests, not a trained model.
// The shared layer folds input dimension j onto hidden unit j mod hidden, scaled by 5; the
// output layer subtracts the summed difference from a positive bias.
func SampleWeights(input, hidden int) Weights {
	fc1 := make([][]float64, hidden)
	for i := range fc1 {
		fc1[i] = make([]float64, input)
		for j := i; j < input; j += hidden {
			fc1[i][j] = sampleScale
		}
	}

	fc2 := make([]float64, hidden)
	for i := range fc2 {
		fc2[i] = -1
	}

	return Weights{
		FC1Weight: fc1,
		FC1Bias:   make([]float64, hidden),
		FC2Weight: [][]float64{fc2},
		FC2Bias:   []float64{sampleBias},
	}
}
