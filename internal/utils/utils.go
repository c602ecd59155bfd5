package utils

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

var Regions = []string{
	"Atlantis", "Avalon", "Eldorado", "Shangri-La", "Asgard",
	"Pandora", "Narnia", "Middle Earth", "Aether",
}

// GenerateRoomName returns a display name like "Avalon-042".
// A nil rnd uses the global source.
func GenerateRoomName(rnd *rand.Rand) string {
	intN := rand.IntN
	if rnd != nil {
		intN = rnd.IntN
	}
	region := Regions[intN(len(Regions))]
	return fmt.Sprintf("%s-%03d", region, intN(1000))
}

// NormalizeWord is the canonical form used for both stored words and guesses.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// NormalizeWords normalizes, drops empties and removes duplicates while
// keeping first-seen order.
func NormalizeWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = NormalizeWord(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
