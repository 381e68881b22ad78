package tensor

import "math"

// DiffStats summarizes the element-wise difference between two vectors.
type DiffStats struct {
	MaxAbs  float64 `json:"max_abs"`
	MeanAbs float64 `json:"mean_abs"`
	RMSE    float64 `json:"rmse"`
	Cosine  float64 `json:"cosine"`
	Length  int     `json:"length"`
}

// Diff computes difference statistics between a and b. The vectors must
// have equal length; the cosine of two zero vectors is reported as 1.
func Diff(a, b []float32) DiffStats {
	if len(a) != len(b) {
		panic("tensor: Diff length mismatch")
	}
	stats := DiffStats{Length: len(a)}
	if len(a) == 0 {
		stats.Cosine = 1
		return stats
	}
	var sumAbs, sumSq, dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		d := av - bv
		if ad := math.Abs(d); ad > stats.MaxAbs {
			stats.MaxAbs = ad
		}
		sumAbs += math.Abs(d)
		sumSq += d * d
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	n := float64(len(a))
	stats.MeanAbs = sumAbs / n
	stats.RMSE = math.Sqrt(sumSq / n)
	if normA == 0 && normB == 0 {
		stats.Cosine = 1
	} else if normA > 0 && normB > 0 {
		stats.Cosine = dot / (math.Sqrt(normA) * math.Sqrt(normB))
	}
	return stats
}
