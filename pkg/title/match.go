package title

import "github.com/hbollon/go-edlib"

// Candidate is a title/year pair to match against.
type Candidate struct {
	Title string
	Year  int
}

// Similarity returns the Jaro-Winkler similarity of two titles after
// cleaning, in [0, 1]. Jaro-Winkler favors common prefixes, which works
// well for media titles and their subtitle variants.
func Similarity(a, b string) float64 {
	return float64(edlib.JaroWinklerSimilarity(Clean(a), Clean(b)))
}

// BestMatch finds the candidate most similar to target. Year agreement
// nudges the score up; a disagreement between two known years is
// penalized hard enough that remakes do not cross typical thresholds.
// Returns the index of the best candidate and its adjusted score, or
// (-1, 0) when candidates is empty.
func BestMatch(target Candidate, candidates []Candidate) (int, float64) {
	bestIdx, bestScore := -1, 0.0
	cleaned := Clean(target.Title)

	for i, c := range candidates {
		score := float64(edlib.JaroWinklerSimilarity(cleaned, Clean(c.Title)))
		score = adjustForYear(score, target.Year, c.Year)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}

func adjustForYear(score float64, a, b int) float64 {
	switch {
	case a == 0 || b == 0:
		return score
	case a == b:
		return min(score*1.05, 1.0)
	default:
		return score * 0.80
	}
}
