// Package charset turns the raw byte strings found in a torrent's
// metadata dictionary into displayable text.
package charset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Fallback is the external heuristic collaborator consulted once
// UTF-8 and GB18030 have both failed. It reports false if it can't
// make sense of b either, in which case the record is dropped
// entirely rather than stored with a garbled name.
type Fallback func(b []byte) (string, bool)

// Decode tries UTF-8, then GB18030 — the two encodings that cover the
// overwhelming majority of torrent names seen in the wild, the latter
// from older Chinese BitTorrent clients — and finally fallback, if
// provided.
func Decode(b []byte, fallback Fallback) (string, bool) {
	if utf8.Valid(b) {
		return string(b), true
	}
	// The GB18030 decoder substitutes U+FFFD for invalid bytes rather
	// than returning an error, so a replacement rune marks a failed decode.
	if s, err := simplifiedchinese.GB18030.NewDecoder().String(string(b)); err == nil && !strings.ContainsRune(s, utf8.RuneError) {
		return s, true
	}
	if fallback != nil {
		return fallback(b)
	}
	return "", false
}

// LatinFallback is a last-resort decoder that maps each byte straight
// to the code point of the same value. It fails only on empty input, so it should
// only be wired in as the fallback when losing a few mangled names is
// preferable to dropping them outright.
func LatinFallback(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), true
}
