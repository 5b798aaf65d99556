package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Median returns the middle value of xs without mutating it.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// PStdev is the population standard deviation.
func PStdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(xs, nil)
	return std
}

// Stdev is the sample standard deviation; it is 0 for fewer than two values.
func Stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func Clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Interp is piecewise-linear interpolation over increasing xp. Values outside
// the range take the nearest endpoint.
func Interp(x float64, xp, fp []float64) float64 {
	if len(xp) == 0 || len(xp) != len(fp) {
		return 0
	}
	if x <= xp[0] {
		return fp[0]
	}
	last := len(xp) - 1
	if x >= xp[last] {
		return fp[last]
	}
	for i := 1; i <= last; i++ {
		if x <= xp[i] {
			span := xp[i] - xp[i-1]
			if span == 0 {
				return fp[i]
			}
			t := (x - xp[i-1]) / span
			return fp[i-1] + t*(fp[i]-fp[i-1])
		}
	}
	return fp[last]
}

// Round rounds half to even at the given number of decimal places.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(places))
	return math.RoundToEven(x*p) / p
}

// SafeRatio returns num/den, or 0 when den is zero.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// MajorityVote returns the most frequent label. Ties go to the label seen first.
func MajorityVote(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	counts := make(map[string]int, len(labels))
	order := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, seen := counts[l]; !seen {
			order = append(order, l)
		}
		counts[l]++
	}
	best := order[0]
	for _, l := range order[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	return best
}
