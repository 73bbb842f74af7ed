package search

import "math"

// maximalMarginalRelevance picks up to k candidate indices balancing
// similarity to the query against similarity to already picked results.
// lambda of 1 is pure relevance, 0 is pure diversity.
func maximalMarginalRelevance(query []float32, candidates [][]float32, lambda float64, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	toQuery := make([]float64, len(candidates))
	for i, c := range candidates {
		toQuery[i] = cosineSimilarity(query, c)
	}

	picked := make([]int, 0, k)
	used := make([]bool, len(candidates))

	// Seed with the most query-similar candidate.
	best := 0
	for i := range toQuery {
		if toQuery[i] > toQuery[best] {
			best = i
		}
	}
	picked = append(picked, best)
	used[best] = true

	for len(picked) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := math.Inf(-1)
			for _, p := range picked {
				if sim := cosineSimilarity(candidates[i], candidates[p]); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*toQuery[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		picked = append(picked, bestIdx)
		used[bestIdx] = true
	}
	return picked
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
