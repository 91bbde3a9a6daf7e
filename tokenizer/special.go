package tokenizer

import "strings"

// fragment is a piece of input text. Fragments holding a special token
// carry its ID and skip the merges.
type fragment struct {
	value string
	ids   []int32
}

// splitSpecialTokens cuts s around every occurrence of a special token of
// vocab. The leftmost occurrence wins; at the same offset the special with
// the lower ID wins.
func splitSpecialTokens(s string, vocab *Vocabulary) []fragment {
	var present []string
	for _, special := range vocab.specials {
		if special != "" && strings.Contains(s, special) {
			present = append(present, special)
		}
	}

	if len(present) == 0 {
		return []fragment{{value: s}}
	}

	var fragments []fragment
	for len(s) > 0 {
		at, match := -1, ""
		for _, special := range present {
			if i := strings.Index(s, special); i >= 0 && (at < 0 || i < at) {
				at, match = i, special
			}
		}

		if at < 0 {
			break
		}

		if at > 0 {
			fragments = append(fragments, fragment{value: s[:at]})
		}

		fragments = append(fragments, fragment{value: match, ids: []int32{vocab.Encode(match)}})
		s = s[at+len(match):]
	}

	if len(s) > 0 {
		fragments = append(fragments, fragment{value: s})
	}

	return fragments
}
