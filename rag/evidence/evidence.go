package evidence

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options tune how strictly claimed quotes must match the retrieved context.
type Options struct {
	// MinQuotes is how many quotes must match for the validation to pass.
	MinQuotes int
	// MinQuoteLen rejects quotes shorter than this many normalized chars.
	MinQuoteLen int
	// MinTokenOverlap is the fuzzy acceptance threshold against one segment.
	MinTokenOverlap float64
	// MinTokensForFuzzy gates fuzzy matching: shorter quotes must match
	// strictly or not at all.
	MinTokensForFuzzy int
}

// DefaultOptions returns the thresholds used in production.
func DefaultOptions() Options {
	return Options{
		MinQuotes:         1,
		MinQuoteLen:       12,
		MinTokenOverlap:   0.55,
		MinTokensForFuzzy: 6,
	}
}

// Rejection reason tags. Observability only; decision logic uses Matched.
const (
	ReasonEmptyContext  = "empty_context"
	ReasonNoQuotes      = "no_quotes"
	ReasonQuoteTooShort = "quote_too_short"
	ReasonNoStrictMatch = "no_strict_match"
)

// Result reports whether the claimed evidence is actually present in the
// context. Transient: consumed immediately by the router, never persisted.
type Result struct {
	OK      bool     `json:"ok"`
	Matched []string `json:"matched,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

// minSegmentLen discards normalized context lines too short to anchor a
// fuzzy match.
const minSegmentLen = 5

// Validate decides whether the evidence quotes are verifiably present in
// contextText. Exact substring containment on the normalized text is
// preferred; when it fails, a token-overlap ratio is computed against
// individual context segments rather than the whole document, so common
// words scattered across a long context cannot support a fabricated quote.
func Validate(contextText string, quotes []string, opts Options) Result {
	if opts.MinQuotes <= 0 {
		opts = DefaultOptions()
	}

	normContext := Normalize(contextText)
	if strings.TrimSpace(normContext) == "" {
		return Result{Reasons: []string{ReasonEmptyContext}}
	}
	if len(quotes) == 0 {
		return Result{Reasons: []string{ReasonNoQuotes}}
	}

	segments := contextSegments(normContext)
	flatContext := strings.Join(strings.Fields(normContext), " ")

	var matched []string
	reasons := make(map[string]struct{})

	for _, quote := range quotes {
		normQuote := flatten(Normalize(quote))
		if len(normQuote) < opts.MinQuoteLen {
			reasons[ReasonQuoteTooShort] = struct{}{}
			continue
		}

		// strict containment proves literal citation
		if strings.Contains(flatContext, normQuote) {
			matched = append(matched, quote)
			continue
		}

		tokens := tokenize(normQuote)
		if len(tokens) < opts.MinTokensForFuzzy {
			reasons[ReasonNoStrictMatch] = struct{}{}
			continue
		}

		best := bestSegmentOverlap(tokens, segments)
		if best >= opts.MinTokenOverlap {
			matched = append(matched, quote)
			continue
		}
		reasons[fmt.Sprintf("low_overlap(best=%.2f)", best)] = struct{}{}
	}

	out := Result{
		OK:      len(matched) >= opts.MinQuotes,
		Matched: matched,
	}
	for r := range reasons {
		out.Reasons = append(out.Reasons, r)
	}
	sort.Strings(out.Reasons)
	return out
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics, collapses punctuation to spaces
// and squeezes whitespace, preserving line boundaries for segmentation.
func Normalize(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		default:
			return ' '
		}
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// flatten removes the line structure from an already normalized string.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// contextSegments splits normalized context into line-level passages,
// dropping noise segments.
func contextSegments(normContext string) [][]string {
	var segments [][]string
	for _, line := range strings.Split(normContext, "\n") {
		if len(line) <= minSegmentLen {
			continue
		}
		if tokens := tokenize(line); len(tokens) > 0 {
			segments = append(segments, tokens)
		}
	}
	return segments
}

// tokenize keeps unique tokens of 3+ chars.
func tokenize(s string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, tok := range strings.Fields(s) {
		if len(tok) < 3 {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// bestSegmentOverlap returns the highest fraction of quote tokens found in
// any single context segment.
func bestSegmentOverlap(quoteTokens []string, segments [][]string) float64 {
	if len(quoteTokens) == 0 {
		return 0
	}
	best := 0.0
	for _, seg := range segments {
		segSet := make(map[string]struct{}, len(seg))
		for _, tok := range seg {
			segSet[tok] = struct{}{}
		}
		hits := 0
		for _, tok := range quoteTokens {
			if _, ok := segSet[tok]; ok {
				hits++
			}
		}
		if ratio := float64(hits) / float64(len(quoteTokens)); ratio > best {
			best = ratio
		}
	}
	return best
}
