// Package interleave merges the two instrument question lists into one fair
// display sequence.
package interleave

import "assessment-engine/internal/models"

// Merge combines the interest and personality lists by round-robin draw:
// one remaining interest question, then one personality question, until both
// are exhausted; when one list runs out the other is drained in its original
// order. DisplayOrder is assigned as the 1-based position in the combined
// sequence. Deterministic: no randomization happens here, the backend owns
// any shuffling of the per-instrument lists.
func Merge(interest, personality []models.Question) []models.Question {
	combined := make([]models.Question, 0, len(interest)+len(personality))

	i, p := 0, 0
	for i < len(interest) || p < len(personality) {
		if i < len(interest) {
			combined = append(combined, interest[i])
			i++
		}
		if p < len(personality) {
			combined = append(combined, personality[p])
			p++
		}
	}

	for idx := range combined {
		combined[idx].DisplayOrder = idx + 1
	}

	return combined
}
