package confidence

// ScoreInput is the evidence a single response's confidence is computed from.
type ScoreInput struct {
	SemanticScores      []float64 // similarity score of every returned match
	HasStructuralResult bool      // at least one structural relationship was returned
	CitationCount       int
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func semanticFactor(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return clip01(sum / float64(len(scores)))
}

func structuralFactor(hasResult bool) float64 {
	if hasResult {
		return 1.0
	}
	return 0.0
}

func citationFactor(count int) float64 {
	v := float64(count) / 3.0
	if v > 1.0 {
		return 1.0
	}
	return v
}

// Score computes a response's confidence as the weighted sum of the
// semantic, structural, and citation factors.
func Score(input ScoreInput, weights Weights) float64 {
	w := weights.Normalize()
	return clip01(
		w.Semantic*semanticFactor(input.SemanticScores) +
			w.Structural*structuralFactor(input.HasStructuralResult) +
			w.Citation*citationFactor(input.CitationCount),
	)
}
