package domain

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var nameSuffix = regexp.MustCompile(`^([^—]+)(?: — .*)?$`)

// CleanDisplayName drops a trailing " — suffix" (as added by some account
// plugins, e.g. "Maria — Cliente VIP") and any markup.
func CleanDisplayName(name string) string {
	name = nameSuffix.ReplaceAllString(name, "$1")
	return strings.TrimSpace(StripTags(name))
}

// StripTags returns the text content of s with every tag removed. Script and
// style bodies are dropped entirely.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}

// SanitizeText trims s and strips markup.
func SanitizeText(s string) string {
	return strings.TrimSpace(StripTags(strings.TrimSpace(s)))
}

// TrimWords keeps the first n whitespace-separated words of s and appends
// more when anything was cut.
func TrimWords(s string, n int, more string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}

// Preview returns at most n runes of s.
func Preview(s string, n int) string {
	return firstRunes(s, n)
}

// Paragraphs splits s on blank lines; single newlines stay inside a
// paragraph.
func Paragraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
