package decision

import "math"

// softmax converts raw scores into a probability distribution. Inputs
// are max-shifted before exponentiation for numerical stability. A
// non-positive or non-finite sum yields the uniform distribution.
func softmax(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}

	maxVal := math.Inf(-1)
	for _, x := range xs {
		if x > maxVal {
			maxVal = x
		}
	}
	if math.IsInf(maxVal, 0) || math.IsNaN(maxVal) {
		return uniform(len(xs))
	}

	exps := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		exps[i] = math.Exp(x - maxVal)
		sum += exps[i]
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return uniform(len(xs))
	}

	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

func uniform(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0 / float64(n)
	}
	return out
}
