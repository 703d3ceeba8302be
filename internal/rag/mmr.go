package rag

import (
	"math"

	"finrag/internal/models"
)

// MMR greedily re-ranks similarity-ordered candidates, trading
// relevance against redundancy: score = lambda*relevance -
// (1-lambda)*max_similarity_to_already_selected. With lambda=1 this
// degenerates to the plain similarity top-k. Ties go to the candidate
// ranked earlier by similarity. The point is to keep a repetitive
// financial table from filling all k slots with near-duplicates.
func MMR(candidates []models.ScoredChunk, k int, lambda float64) []models.ScoredChunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k >= len(candidates) && lambda >= 1 {
		return candidates
	}

	selected := make([]models.ScoredChunk, 0, k)
	remaining := make([]int, len(candidates))
	for i := range candidates {
		remaining[i] = i
	}

	for len(selected) < k && len(remaining) > 0 {
		bestPos := 0
		bestScore := math.Inf(-1)
		for pos, idx := range remaining {
			c := candidates[idx]
			redundancy := 0.0
			for _, s := range selected {
				if sim := cosine(c.Embedding, s.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*c.Score - (1-lambda)*redundancy
			// strict > keeps the earlier similarity rank on ties
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}
		selected = append(selected, candidates[remaining[bestPos]])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
