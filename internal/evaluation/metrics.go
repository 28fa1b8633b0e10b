package evaluation

// Rate returns num/den, or 0 when den is zero.
func Rate(num, den int) float64 {
	if den <= 0 {
		return 0.0
	}
	return float64(num) / float64(den)
}

// TopLabel returns the most frequent label and its share of the total.
// Ties resolve to the lexically smallest label so output is stable.
func TopLabel(labels map[string]int) (string, float64) {
	best, bestCount, total := "", 0, 0
	for label, n := range labels {
		total += n
		if n > bestCount || (n == bestCount && label < best) {
			best, bestCount = label, n
		}
	}
	return best, Rate(bestCount, total)
}
