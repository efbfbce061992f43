package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scores are regression metrics computed on a held-out split, in the target's units.
type Scores struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate clamps predictions to be non-negative and scores them against yTrue.
// R² is clamped to a minimum of 0.
func Evaluate(yTrue, yPred []float64) Scores {
	n := min(len(yTrue), len(yPred))
	if n == 0 {
		return Scores{}
	}

	estimates := make([]float64, n)
	absErr := make([]float64, n)
	sqErr := make([]float64, n)
	for i := range n {
		estimates[i] = max(0, yPred[i])
		d := estimates[i] - yTrue[i]
		absErr[i] = math.Abs(d)
		sqErr[i] = d * d
	}

	return Scores{
		MAE:  stat.Mean(absErr, nil),
		RMSE: math.Sqrt(stat.Mean(sqErr, nil)),
		R2:   rSquared(estimates, yTrue[:n], sqErr),
	}
}

func rSquared(estimates, values, sqErr []float64) float64 {
	if len(values) < 2 || stat.Variance(values, nil) == 0 {
		// constant target: perfect fit scores 1, anything else 0
		for _, e := range sqErr {
			if e != 0 {
				return 0
			}
		}
		return 1
	}

	r2 := stat.RSquaredFrom(estimates, values, nil)
	if math.IsNaN(r2) || r2 < 0 {
		return 0
	}
	return r2
}

// Average returns the elementwise mean of equally sized prediction slices.
func Average(preds ...[]float64) []float64 {
	if len(preds) == 0 {
		return nil
	}

	out := make([]float64, len(preds[0]))
	for _, p := range preds {
		for i := range out {
			out[i] += p[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(preds))
	}
	return out
}
