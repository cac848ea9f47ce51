package tracemoe

// SimilarityThreshold is the confidence above which results are shown as
// matches.
const SimilarityThreshold = 0.87

// lowConfidenceCount is how many raw results are kept when none clear the
// threshold.
const lowConfidenceCount = 3

// Select keeps the results whose similarity is strictly above
// SimilarityThreshold. When none qualify it returns the first three raw
// results instead. Upstream order is preserved.
func Select(results []Result) []Result {
	confident := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Similarity > SimilarityThreshold {
			confident = append(confident, r)
		}
	}
	if len(confident) > 0 {
		return confident
	}
	return results[:min(lowConfidenceCount, len(results))]
}
