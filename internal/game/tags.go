// Package game implements the pure core of the call simulator: control-tag
// parsing, the motivation alignment heuristic, bounce and conversion rules,
// outcome scoring, and the turn-taking state machine. Nothing in this
// package performs I/O, so every rule is unit-testable without a network.
package game

import (
	"regexp"
	"strings"
)

// Close and flag tags are in-band control tokens the agent persona embeds
// in free text. Matching is case-insensitive, tolerates newlines inside
// the payload, and captures non-greedily so the first well-formed tag wins.
var (
	closeTagRe = regexp.MustCompile(`(?is)\[CLOSE:\s*(.+?)\]`)
	flagTagRe  = regexp.MustCompile(`(?is)\[FLAG:\s*(.+?)\]`)
)

// ParseCloseTag reports whether text contains a [CLOSE: ...] directive and
// returns the trimmed pitch. Returns ("", false) when no tag is present.
func ParseCloseTag(text string) (pitch string, found bool) {
	m := closeTagRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseFlagTag reports whether text contains a [FLAG: ...] directive and
// returns the trimmed reason. Returns ("", false) when no tag is present.
func ParseFlagTag(text string) (reason string, found bool) {
	m := flagTagRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// StripTags removes all close and flag tags from text and trims the result,
// producing display-safe prose. Stripping is idempotent.
func StripTags(text string) string {
	text = closeTagRe.ReplaceAllString(text, "")
	text = flagTagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
