package rag

import (
	"math"
	"sort"
)

// SquaredL2 returns the squared euclidean distance between two vectors.
// Vectors of different length are compared over the shorter prefix.
func SquaredL2(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Normalize scales v to unit length in place and returns it.
// The zero vector is returned unchanged.
func Normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Scored pairs a stored item index with its distance to a query.
type Scored struct {
	Index    int
	Distance float64
}

// Nearest returns the k closest vectors to query, closest first.
// Equal distances keep insertion order.
func Nearest(query []float64, vectors [][]float64, k int) []Scored {
	scored := make([]Scored, len(vectors))
	for i, v := range vectors {
		scored[i] = Scored{Index: i, Distance: SquaredL2(query, v)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
