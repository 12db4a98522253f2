package match

import "strings"

// Title term weights. The three title terms are mutually exclusive; at most
// one contributes per scoring call.
const (
	exactTitleScore      = 60
	simplifiedTitleScore = 40
	containedTitleScore  = 20
	soundtrackScore      = 20
	artistScore          = 20
	maxScore             = 100
)

// Score rates how well a candidate record matches the target on a 0-100
// scale. Terms are additive: one of exact/simplified/contained title match,
// plus soundtrack-marker co-occurrence, plus artist agreement, clamped at
// 100. Scoring is directional: target and candidate roles are not
// interchangeable.
func Score(targetName, candidateName, targetArtist, candidateArtist string) float64 {
	var total float64

	targetSimplified, _ := SimplifyTitle(targetName)
	candidateSimplified, _ := SimplifyTitle(candidateName)

	switch {
	case strings.EqualFold(targetName, candidateName):
		total += exactTitleScore
	case targetSimplified != "" && strings.EqualFold(targetSimplified, candidateSimplified):
		total += simplifiedTitleScore
	case targetSimplified != "" && strings.Contains(strings.ToLower(candidateName), strings.ToLower(targetSimplified)):
		total += containedTitleScore
	}

	if HasSoundtrackMarker(targetName) && HasSoundtrackMarker(candidateName) {
		total += soundtrackScore
	}

	// An empty target artist disqualifies the whole term, including the
	// various-artists escape hatch.
	if targetArtist != "" {
		if strings.Contains(strings.ToLower(candidateArtist), strings.ToLower(targetArtist)) ||
			strings.Contains(candidateArtist, VariousArtistsMarker) {
			total += artistScore
		}
	}

	if total > maxScore {
		total = maxScore
	}
	return total
}
