// Package tokens computes token counts for prompt sizing and per-turn
// usage reporting. Counting is a local heuristic — exact tokenization is
// not required, but the same text must always yield the same count, both
// when sizing a prompt and when reporting it afterwards.
package tokens

import "strings"

// Scheme names the tokenization family of the target model.
type Scheme string

const (
	SchemeOpenAI    Scheme = "openai"
	SchemeAnthropic Scheme = "anthropic"
)

// tokensPerWord approximates each family's subword splitting rate for
// English prose.
var tokensPerWord = map[Scheme]float64{
	SchemeOpenAI:    1.33,
	SchemeAnthropic: 1.25,
}

// ParseScheme maps a config string to a Scheme, defaulting to openai.
func ParseScheme(s string) Scheme {
	switch Scheme(strings.ToLower(s)) {
	case SchemeAnthropic:
		return SchemeAnthropic
	default:
		return SchemeOpenAI
	}
}

// Counter counts tokens under a fixed scheme.
type Counter struct {
	scheme Scheme
}

func NewCounter(scheme Scheme) *Counter {
	if _, ok := tokensPerWord[scheme]; !ok {
		scheme = SchemeOpenAI
	}
	return &Counter{scheme: scheme}
}

func (c *Counter) Scheme() Scheme { return c.scheme }

// Count returns the token count of text under the counter's scheme.
// Deterministic, non-negative, Count("") == 0, and non-decreasing when
// text is appended: both the word count and the byte length can only
// grow (or stay equal) under concatenation.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	byWords := int(float64(words) * tokensPerWord[c.scheme])
	// Long unbroken runs (base64 blobs, serialized tables) have few
	// spaces but still cost tokens; take the character floor too.
	byChars := len(text) / 4
	n := byWords
	if byChars > n {
		n = byChars
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Count is a convenience for one-off counts.
func Count(text string, scheme Scheme) int {
	return NewCounter(scheme).Count(text)
}
