package bench

import "gonum.org/v1/gonum/stat"

type IntStats struct {
	N    int
	Best int
	Mean float64
	Std  float64
}

// CalcIntStats returns the minimum, mean and sample standard deviation.
func CalcIntStats(values []int) IntStats {
	s := IntStats{N: len(values)}
	if s.N == 0 {
		return s
	}

	best := values[0]
	fs := make([]float64, len(values))
	for i, v := range values {
		best = min(best, v)
		fs[i] = float64(v)
	}
	f := CalcFloatStats(fs)

	s.Best = best
	s.Mean = f.Mean
	s.Std = f.Std
	return s
}

type FloatStats struct {
	N    int
	Best float64
	Mean float64
	Std  float64
}

func CalcFloatStats(values []float64) FloatStats {
	s := FloatStats{N: len(values)}
	if s.N == 0 {
		return s
	}

	best := values[0]
	for _, v := range values {
		best = min(best, v)
	}
	s.Best = best
	if s.N < 2 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	return s
}
