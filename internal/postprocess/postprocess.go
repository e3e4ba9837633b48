// Package postprocess strips the chatter an LLM wraps around a one-sentence
// translation so the result can be matched back against the source texts.
package postprocess

import (
	"regexp"
	"strings"
)

// reasoningRe matches closed and unterminated reasoning blocks. RE2 has no
// backreferences, so every tag is listed.
var reasoningRe = regexp.MustCompile(
	`(?is)<(?:thinking|think|reasoning|reflection)>.*?(?:</(?:thinking|think|reasoning|reflection)>|$)`,
)

// labelRe matches a leading "Translation:"-style label.
var labelRe = regexp.MustCompile(`(?i)^(?:here(?:'s| is)(?: the)? )?(?:translation|translated (?:text|sentence))\s*:\s*`)

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'„', '“'},
}

// Clean keeps the first non-empty line of text after removing reasoning
// blocks, a leading label and one pair of wrapping quotes.
func Clean(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = firstLine(text)
	text = labelRe.ReplaceAllString(text, "")
	return unquote(strings.TrimSpace(text))
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func unquote(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	first, last := runes[0], runes[len(runes)-1]
	for _, p := range quotePairs {
		if first == p[0] && last == p[1] {
			return strings.TrimSpace(string(runes[1 : len(runes)-1]))
		}
	}
	return text
}
