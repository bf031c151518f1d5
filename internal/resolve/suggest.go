package resolve

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestions caps the "did you mean" list rendered by the Error
// Handling layer (spec §7, command-not-found diagnostics).
const maxSuggestions = 5

// Suggest ranks candidates (alias names, PATH executables) by fuzzy
// closeness to name, returning up to maxSuggestions matches ordered best
// first. Only candidates that contain the letters of name in order
// (case-insensitively) are kept, ranked by edit distance; a candidate that
// lacks one of name's letters (such as "echoo" for "echo0", which has no
// "0") is not offered. Grounded on the fuzzy command-matching idiom used across the
// decorator/command resolution code in the rest of the retrieval pack.
func Suggest(name string, candidates []string) []string {
	type scored struct {
		name  string
		score int
	}
	var ranked []scored
	for _, c := range candidates {
		if !fuzzy.MatchFold(name, c) {
			continue
		}
		ranked = append(ranked, scored{c, fuzzy.RankMatchFold(name, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})
	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}
