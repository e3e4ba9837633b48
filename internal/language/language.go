// Package language maps ISO 639 codes onto the codes understood by the
// alignment engine.
package language

import (
	"sort"
	"strings"
)

// Unknown is the engine's code for a language it has no special handling for.
const Unknown = "xx"

// aliases rewrite ISO codes whose engine code differs.
var aliases = map[string]string{
	"be": "bu",
	"cs": "cz",
	"sv": "sw",
}

// supported is the engine's language set (after aliasing).
var supported = map[string]struct{}{
	"ba": {}, "bu": {}, "cv": {}, "cz": {}, "da": {}, "de": {}, "en": {},
	"es": {}, "fi": {}, "fr": {}, "hu": {}, "it": {}, "ja": {}, "ko": {},
	"kk": {}, "nl": {}, "no": {}, "pl": {}, "pt": {}, "ru": {}, "sw": {},
	"tr": {}, "tt": {}, "uk": {}, "zh": {}, "am": {}, "hy": {}, "el": {},
	"hi": {}, "ar": {}, "he": {}, "ro": {}, "sk": {}, "sl": {}, "bg": {},
	"et": {}, "lt": {}, "lv": {}, "ka": {}, "xx": {},
}

// Normalize returns the engine code for an ISO 639 code. The second result
// is false when the code is not supported and Unknown was substituted.
func Normalize(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if alias, ok := aliases[code]; ok {
		code = alias
	}
	if _, ok := supported[code]; !ok {
		return Unknown, false
	}
	return code, true
}

// IsSupported reports whether code (after aliasing) is known to the engine.
func IsSupported(code string) bool {
	_, ok := Normalize(code)
	return ok
}

// Supported returns the supported engine codes in sorted order.
func Supported() []string {
	codes := make([]string, 0, len(supported))
	for c := range supported {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
