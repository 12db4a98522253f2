// Package match holds the pure name-normalization and candidate-scoring
// primitives used to pick one remote catalog record for a local track, album,
// or artist. Everything here is deterministic and does no I/O.
package match

import (
	"regexp"
	"strings"
)

// VariousArtistsMarker is the compilation-album artist credit used by the
// upstream catalog. Candidates carrying it can match any non-empty target
// artist; as a target artist it is useless for keyword construction.
const VariousArtistsMarker = "群星"

// SoundtrackSearchSuffix is appended to simplified titles when building the
// soundtrack-oriented search strategy.
const SoundtrackSearchSuffix = "电视原声带"

// suffixPattern matches parenthesized or bracketed segments and a trailing
// " - ..." qualifier, all of which carry edition/version noise rather than
// identity.
var suffixPattern = regexp.MustCompile(`\(.*?\)|\[.*?\]|\s+-\s+.*$`)

// soundtrackPattern matches the known soundtrack marker phrases.
var soundtrackPattern = regexp.MustCompile(`(?i)电视原声带|电影原声带|原声大碟|Original Soundtrack|OST`)

// artistSeparators lists multi-artist credit separators in scan order. Only
// the first separator actually present in a credit string is split on.
var artistSeparators = []string{"/", "\\", "|", ",", "、", "；", ";", "+"}

// SimplifyTitle strips noise from a title. core has parenthesized, bracketed,
// and trailing " - ..." suffixes removed; simplified additionally drops
// soundtrack marker phrases. Both are whitespace-trimmed.
func SimplifyTitle(title string) (simplified, core string) {
	core = strings.TrimSpace(suffixPattern.ReplaceAllString(title, ""))
	simplified = strings.TrimSpace(soundtrackPattern.ReplaceAllString(core, ""))
	return simplified, core
}

// HasSoundtrackMarker reports whether title contains any soundtrack marker
// phrase.
func HasSoundtrackMarker(title string) bool {
	return soundtrackPattern.MatchString(title)
}

// CleanArtist reduces a multi-artist credit string to its first artist. The
// separator set is scanned in a fixed order and the first separator present
// splits the string once; internal whitespace runs collapse to single spaces.
func CleanArtist(name string) string {
	for _, sep := range artistSeparators {
		if i := strings.Index(name, sep); i >= 0 {
			name = name[:i]
			break
		}
	}
	return strings.Join(strings.Fields(name), " ")
}
