package profiling

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// clustering is the outcome of one K-Means fit.
type clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
	Iters     int
}

// fitKMeans runs cfg.Restarts seeded Lloyd fits and keeps the lowest inertia.
// All restarts draw from one source so the result depends only on cfg.Seed.
func fitKMeans(points [][]float64, k int, cfg Config) clustering {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	tol := cfg.Tolerance * meanVariance(points)

	var best clustering
	for r := 0; r < cfg.Restarts; r++ {
		c := lloyd(points, seedPlusPlus(points, k, rng), cfg.MaxIterations, tol)
		if r == 0 || c.Inertia < best.Inertia {
			best = c
		}
	}
	return best
}

// meanVariance is the average per-column population variance.
func meanVariance(points [][]float64) float64 {
	if len(points) == 0 {
		return 0
	}
	dims := len(points[0])
	column := make([]float64, len(points))
	var total float64
	for d := 0; d < dims; d++ {
		for i, p := range points {
			column[i] = p[d]
		}
		_, variance := stat.PopMeanVariance(column, nil)
		total += variance
	}
	return total / float64(dims)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// seedPlusPlus picks k initial centroids with k-means++ weighting.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.IntN(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	closest := make([]float64, len(points))
	for i, p := range points {
		closest[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(closest)
		next := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range closest {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}

		c := append([]float64(nil), points[next]...)
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

// assign labels each point with its nearest centroid, lowest id on ties.
func assign(points, centroids [][]float64, labels []int) {
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
	}
}

func lloyd(points, centroids [][]float64, maxIter int, tol float64) clustering {
	k := len(centroids)
	dims := len(points[0])
	labels := make([]int, len(points))

	iter := 0
	for iter < maxIter {
		iter++
		assign(points, centroids, labels)
		reseedEmpty(points, centroids, labels, k)

		next := make([][]float64, k)
		counts := make([]float64, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(next[labels[i]], p)
			counts[labels[i]]++
		}

		var shift float64
		for c := range next {
			if counts[c] == 0 {
				copy(next[c], centroids[c])
				continue
			}
			floats.Scale(1/counts[c], next[c])
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next

		if shift <= tol {
			break
		}
	}

	// Duplicate points can leave a cluster empty after the final assignment.
	assign(points, centroids, labels)
	reseedEmpty(points, centroids, labels, k)
	return clustering{Labels: labels, Centroids: centroids, Inertia: inertia(points, centroids, labels), Iters: iter}
}

func inertia(points, centroids [][]float64, labels []int) float64 {
	var total float64
	for i, p := range points {
		total += sqDist(p, centroids[labels[i]])
	}
	return total
}

// reseedEmpty moves the point farthest from its centroid into each empty cluster.
// Points that are alone in their cluster are never moved.
func reseedEmpty(points, centroids [][]float64, labels []int, k int) {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] <= 1 {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c] = 1
		copy(centroids[c], points[far])
	}
}
