package domain

import (
	"crypto/md5" // #nosec G501 -- colour seed, not security
	"strconv"
	"strings"
	"unicode/utf8"
)

// AvatarTextColor is the foreground used on every avatar.
const AvatarTextColor = "#ffffff"

// HSL is an avatar background colour.
type HSL struct {
	Hue        float64
	Saturation int
	Lightness  int
}

// String renders the CSS form, e.g. "hsl(211.8, 72%, 51%)".
func (c HSL) String() string {
	return "hsl(" + strconv.FormatFloat(c.Hue, 'f', 1, 64) + ", " +
		strconv.Itoa(c.Saturation) + "%, " + strconv.Itoa(c.Lightness) + "%)"
}

// Initials returns the upper-cased first letters of the first and last
// words of name. Single-word names use the first two letters instead.
func Initials(name string) string {
	words := strings.Split(strings.TrimSpace(name), " ")
	first := words[0]
	if first == "" {
		return ""
	}

	initials := firstRunes(first, 1)
	if last := words[len(words)-1]; len(words) > 1 && last != "" {
		initials += firstRunes(last, 1)
	}
	if utf8.RuneCountInString(initials) < 2 {
		initials = firstRunes(first, 2)
	}
	return strings.ToUpper(initials)
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// AvatarColor derives a stable colour from md5(name + userID).
func AvatarColor(name, userID string) HSL {
	sum := md5.Sum([]byte(name + userID)) // #nosec G401
	return HSL{
		Hue:        float64(sum[0]) / 255 * 360,
		Saturation: 65 + int(sum[1])%25,
		Lightness:  45 + int(sum[2])%15,
	}
}

// Avatar bundles what a card needs to draw an author badge.
type Avatar struct {
	Initials  string `json:"initials"`
	BgColor   string `json:"bg_color"`
	TextColor string `json:"text_color"`
}

func NewAvatar(name, userID string) Avatar {
	return Avatar{
		Initials:  Initials(name),
		BgColor:   AvatarColor(name, userID).String(),
		TextColor: AvatarTextColor,
	}
}
