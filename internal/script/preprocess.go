// Package script normalizes scene scripts before narration synthesis.
//
// Speech providers read raw markup badly: URLs become letter soup, citation
// markers are spoken aloud and irregular whitespace produces unnatural
// pauses. Normalization keeps the narration clean without changing meaning.
package script

import (
	"regexp"
	"strings"
)

// Regex patterns for script cleaning.
const (
	urlRegexPattern        = `https?://\S+`
	emailRegexPattern      = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	referenceRegexPattern  = `(?:\[\d+\]|\(\d+\)|[¹²³⁴⁵⁶⁷⁸⁹⁰]+)`
	citationRegexPattern   = `\([^)]*\d{4}[^)]*\)|\b\w+\s+et\s+al\.`
	whitespaceRegexPattern = `\s+`
)

// Punctuation normalized to forms providers pronounce naturally.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
)

// Normalizer cleans script text for narration. Patterns are compiled once at
// construction.
type Normalizer struct {
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	referencePattern  *regexp.Regexp
	citationPattern   *regexp.Regexp
	whitespacePattern *regexp.Regexp

	abbreviationReplacer *strings.Replacer
	punctuationReplacer  *strings.Replacer
}

// NewNormalizer creates a script normalizer with compiled patterns and replacers.
func NewNormalizer() *Normalizer {
	abbreviations := []string{
		"Mr.", "Mister",
		"Mrs.", "Misses",
		"Ms.", "Miss",
		"Dr.", "Doctor",
		"St.", "Saint",
		"Co.", "Company",
		"Ltd.", "Limited",
		"Corp.", "Corporation",
		"Inc.", "Incorporated",
	}

	punctuation := []string{
		emDash, ", ",
		enDash, ", ",
		figureDash, "-",
		ellipsisChar, "...",
		"\r\n", " ",
		"\n", " ",
		"\t", " ",
	}

	return &Normalizer{
		urlPattern:           regexp.MustCompile(urlRegexPattern),
		emailPattern:         regexp.MustCompile(emailRegexPattern),
		referencePattern:     regexp.MustCompile(referenceRegexPattern),
		citationPattern:      regexp.MustCompile(citationRegexPattern),
		whitespacePattern:    regexp.MustCompile(whitespaceRegexPattern),
		abbreviationReplacer: strings.NewReplacer(abbreviations...),
		punctuationReplacer:  strings.NewReplacer(punctuation...),
	}
}

// Normalize cleans a script for speech synthesis. Cheaper transformations run
// first; the result may be empty if the input held nothing speakable.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	normalized := n.abbreviationReplacer.Replace(text)

	normalized = n.urlPattern.ReplaceAllString(normalized, " ")
	normalized = n.emailPattern.ReplaceAllString(normalized, " ")
	normalized = n.referencePattern.ReplaceAllString(normalized, "")
	normalized = n.citationPattern.ReplaceAllString(normalized, "")

	normalized = n.punctuationReplacer.Replace(normalized)
	normalized = n.whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}
