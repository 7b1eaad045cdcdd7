// Package text provides text normalization for speech synthesis.
//
// Lesson and narration texts arrive decorated for chat rendering: emoji,
// markdown emphasis, stacked punctuation. None of that survives a trip
// through the synthesis call gracefully, so everything is cleaned here
// before the remote request is issued.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Regex patterns for text normalization.
const (
	boldRegexPattern        = `\*\*(.*?)\*\*`
	italicRegexPattern      = `\*(.*?)\*`
	underscoreRegexPattern  = `__(.*?)__`
	codeRegexPattern        = "`([^`]*)`"
	exclamationRegexPattern = `!{2,}`
	questionRegexPattern    = `\?{2,}`
	periodRegexPattern      = `\.{3,}`
	whitespaceRegexPattern  = `\s+`
)

// Pictographic and symbol blocks stripped before synthesis. These cover the
// emoticon, symbol, transport and flag planes the chat layer decorates with.
var pictographRanges = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x2190, Hi: 0x21FF, Stride: 1},   // arrows
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1},   // misc symbols, dingbats
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1},   // misc symbols and arrows
		{Lo: 0x1F000, Hi: 0x1F0FF, Stride: 1}, // mahjong, dominoes, cards
		{Lo: 0x1F100, Hi: 0x1F2FF, Stride: 1}, // enclosed alphanumerics
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // symbols and pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport and map symbols
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // supplemental pictographs
		{Lo: 0x1FA00, Hi: 0x1FAFF, Stride: 1}, // extended pictographs
	},
}

// Normalizer cleans text for speech synthesis. Patterns are compiled once
// at construction and the normalizer is safe for concurrent use.
type Normalizer struct {
	boldPattern        *regexp.Regexp
	italicPattern      *regexp.Regexp
	underscorePattern  *regexp.Regexp
	codePattern        *regexp.Regexp
	exclamationPattern *regexp.Regexp
	questionPattern    *regexp.Regexp
	periodPattern      *regexp.Regexp
	whitespacePattern  *regexp.Regexp
}

// NewNormalizer creates a normalizer with precompiled patterns.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		boldPattern:        regexp.MustCompile(boldRegexPattern),
		italicPattern:      regexp.MustCompile(italicRegexPattern),
		underscorePattern:  regexp.MustCompile(underscoreRegexPattern),
		codePattern:        regexp.MustCompile(codeRegexPattern),
		exclamationPattern: regexp.MustCompile(exclamationRegexPattern),
		questionPattern:    regexp.MustCompile(questionRegexPattern),
		periodPattern:      regexp.MustCompile(periodRegexPattern),
		whitespacePattern:  regexp.MustCompile(whitespaceRegexPattern),
	}
}

// Normalize strips decoration and collapses punctuation and whitespace.
// The result is what actually gets synthesized, and also what gets
// fingerprinted for cache lookups, so this function must stay deterministic.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	cleaned := n.stripMarkup(text)
	cleaned = stripPictographs(cleaned)
	cleaned = n.collapsePunctuation(cleaned)
	cleaned = n.whitespacePattern.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}

// stripMarkup removes emphasis markers while keeping their inner text.
func (n *Normalizer) stripMarkup(text string) string {
	cleaned := n.boldPattern.ReplaceAllString(text, "$1")
	cleaned = n.underscorePattern.ReplaceAllString(cleaned, "$1")
	cleaned = n.italicPattern.ReplaceAllString(cleaned, "$1")
	cleaned = n.codePattern.ReplaceAllString(cleaned, "$1")

	return cleaned
}

// collapsePunctuation reduces stacked terminal punctuation to one mark.
func (n *Normalizer) collapsePunctuation(text string) string {
	cleaned := n.exclamationPattern.ReplaceAllString(text, "!")
	cleaned = n.questionPattern.ReplaceAllString(cleaned, "?")
	cleaned = n.periodPattern.ReplaceAllString(cleaned, ".")

	return cleaned
}

func stripPictographs(text string) string {
	var builder strings.Builder

	builder.Grow(len(text))

	for _, r := range text {
		if unicode.Is(pictographRanges, r) || r == 0xFE0F || r == 0x200D {
			continue
		}

		builder.WriteRune(r)
	}

	return builder.String()
}
