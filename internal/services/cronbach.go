package services

// CronbachAlpha computes Cronbach's alpha for a [respondents][items] matrix using
// population variance. Ragged, empty or single-item input yields 0; the result is clamped
// to [0, 1].
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 || len(matrix[0]) < 2 {
		return 0
	}
	k := len(matrix[0])
	for _, row := range matrix {
		if len(row) != k {
			return 0
		}
	}

	totals := make([]float64, n)
	var sumItemVars float64
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i, row := range matrix {
			col[i] = row[j]
			totals[i] += row[j]
		}
		sumItemVars += popVariance(col)
	}
	totalVar := popVariance(totals)
	if totalVar == 0 {
		return 0
	}
	kf := float64(k)
	alpha := kf / (kf - 1) * (1 - sumItemVars/totalVar)
	switch {
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	}
	return alpha
}

func popVariance(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}
