package domain

import "strings"

var spamKeywords = []string{
	"http://", "https://", "www.",
	"casino", "viagra", "cialis",
	"buy now", "click here", "limited time",
	"make money", "work from home",
}

const (
	maxLinks    = 2
	maxRepeated = 10
)

// IsLikelySpam is a keyword and pattern heuristic over free text. It flags
// known spam phrases, more than two links, and any character repeated 11 or
// more times in a row. Matching is case-insensitive.
func IsLikelySpam(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if countLinks(lower) > maxLinks {
		return true
	}
	return hasRepeatedRun(text, maxRepeated+1)
}

// countLinks counts non-overlapping http://, https:// and www. occurrences,
// scanning left to right.
func countLinks(lower string) int {
	n := 0
	for i := 0; i < len(lower); {
		rest := lower[i:]
		switch {
		case strings.HasPrefix(rest, "http://"):
			n++
			i += len("http://")
		case strings.HasPrefix(rest, "https://"):
			n++
			i += len("https://")
		case strings.HasPrefix(rest, "www."):
			n++
			i += len("www.")
		default:
			i++
		}
	}
	return n
}

func hasRepeatedRun(s string, run int) bool {
	var prev rune
	count := 0
	for _, r := range s {
		if count > 0 && r == prev {
			count++
		} else {
			prev, count = r, 1
		}
		if count >= run {
			return true
		}
	}
	return false
}
