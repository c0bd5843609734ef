package canonical

import (
	"regexp"
	"strings"
)

// KnowledgeBlock is one semantic unit extracted from an uploaded document:
// a topical hierarchy plus the factual answer that retrieval will surface.
type KnowledgeBlock struct {
	Niche      string   `json:"niche"`
	Area       string   `json:"area"`
	Subject    string   `json:"subject"`
	SubSubject string   `json:"sub_subject,omitempty"`
	Intention  string   `json:"intention,omitempty"`
	Questions  []string `json:"questions,omitempty"`
	Answer     string   `json:"answer"`
	RawBlock   string   `json:"raw_block"`
}

// Stats summarises the extraction outcome for one document.
type Stats struct {
	BlockCount   int `json:"block_count"`
	AvgBlockSize int `json:"avg_block_size"`
}

// Result aggregates the canonicalization output for one document.
type Result struct {
	Blocks        []KnowledgeBlock `json:"blocks"`
	CanonicalText string           `json:"canonical_text"`
	MissingFields []string         `json:"missing_fields,omitempty"`
	Stats         Stats            `json:"stats"`
}

const (
	// DefaultNiche tags blocks whose business vertical could not be
	// determined from the filename or the block text.
	DefaultNiche = "GENERAL"

	// DefaultPlaceholder fills unparsed hierarchy fields.
	DefaultPlaceholder = "GENERAL"

	// minBlockLen filters out candidates that are too short to carry
	// useful knowledge (stray headers, page numbers, separators).
	minBlockLen = 20

	// minAnswerLen is the threshold below which an answer counts as
	// missing for coverage purposes.
	minAnswerLen = 10

	// blockSeparator joins canonical block records in the embeddable text.
	blockSeparator = "\n\n-----\n\n"
)

// Missing-field tags accumulated for the scorer. Kept in the operator's
// language since they surface verbatim in review screens.
const (
	MissingNiche  = "NICHO"
	MissingAnswer = "RESPOSTA"
)

// dashRule matches a dashes-only separator line surrounded by blank lines
// (document start and end count as blank); a dashed underline glued to its
// paragraph is content, not a block boundary.
var dashRule = regexp.MustCompile(`(\A|\n[ \t]*\n)[ \t]*-{3,}[ \t]*(\n[ \t]*\n|\n?\z)`)

// Canonicalize splits raw uploaded text into tagged knowledge blocks and
// rebuilds a clean, consistently formatted text for embedding. It never
// fails: a document where every candidate is filtered as noise yields a
// valid zero-block result with empty canonical text.
func Canonicalize(raw, filename string) Result {
	defaultNiche := NicheFromFilename(filename)

	candidates := splitBlocks(raw)
	blocks := make([]KnowledgeBlock, 0, len(candidates))
	totalSize := 0
	nicheParsed := false
	answerFound := false

	for _, candidate := range candidates {
		block := parseBlock(candidate, defaultNiche)
		if block.Niche != DefaultNiche {
			nicheParsed = true
		}
		if len(block.Answer) >= minAnswerLen {
			answerFound = true
		}
		totalSize += len(candidate)
		blocks = append(blocks, block)
	}

	var missing []string
	if !nicheParsed {
		missing = append(missing, MissingNiche)
	}
	if !answerFound {
		missing = append(missing, MissingAnswer)
	}

	stats := Stats{BlockCount: len(blocks)}
	if len(blocks) > 0 {
		stats.AvgBlockSize = totalSize / len(blocks)
	}

	return Result{
		Blocks:        blocks,
		CanonicalText: buildCanonicalText(blocks),
		MissingFields: missing,
		Stats:         stats,
	}
}

// splitBlocks cuts the raw text at dashed-rule lines, blank-line paragraph
// breaks and lines opening a brace, then drops candidates too short to
// matter.
func splitBlocks(raw string) []string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = dashRule.ReplaceAllString(text, "\x00")

	var candidates []string
	for _, section := range strings.Split(text, "\x00") {
		for _, paragraph := range strings.Split(section, "\n\n") {
			candidates = append(candidates, splitAtBraces(paragraph)...)
		}
	}

	out := candidates[:0]
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if len(c) < minBlockLen {
			continue
		}
		out = append(out, c)
	}
	return out
}

// splitAtBraces starts a new candidate whenever a line opens a brace,
// which usually signals pasted structured input.
func splitAtBraces(paragraph string) []string {
	lines := strings.Split(paragraph, "\n")
	var parts []string
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "{") && len(current) > 0 {
			parts = append(parts, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n"))
	}
	return parts
}

// parseBlock applies the extraction rules to one candidate block.
func parseBlock(candidate, defaultNiche string) KnowledgeBlock {
	block := KnowledgeBlock{
		Niche:    defaultNiche,
		Area:     DefaultPlaceholder,
		Subject:  DefaultPlaceholder,
		RawBlock: candidate,
	}

	if v, ok := nicheRule.extract(candidate); ok {
		block.Niche = v
	}
	if v, ok := areaRule.extract(candidate); ok {
		block.Area = v
	}
	if v, ok := subjectRule.extract(candidate); ok {
		block.Subject = v
	}
	if v, ok := subSubjectRule.extract(candidate); ok {
		block.SubSubject = v
	}
	if v, ok := intentionRule.extract(candidate); ok {
		block.Intention = v
	}
	block.Questions = extractQuestions(candidate)
	block.Answer = extractAnswer(candidate)

	return block
}

// buildCanonicalText emits one fixed-format record per block, joined by a
// distinct separator line, producing the text that gets chunked and
// embedded.
func buildCanonicalText(blocks []KnowledgeBlock) string {
	if len(blocks) == 0 {
		return ""
	}

	records := make([]string, 0, len(blocks))
	for _, b := range blocks {
		var sb strings.Builder
		sb.WriteString("[CONTEXTO] ")
		sb.WriteString(b.Niche)
		sb.WriteString(" > ")
		sb.WriteString(b.Area)
		sb.WriteString(" > ")
		sb.WriteString(b.Subject)
		if b.SubSubject != "" {
			sb.WriteString(" > ")
			sb.WriteString(b.SubSubject)
		}
		if b.Intention != "" {
			sb.WriteString("\n[INTENCAO] ")
			sb.WriteString(b.Intention)
		}
		if len(b.Questions) > 0 {
			sb.WriteString("\n[PERGUNTAS DE TRIAGEM] ")
			sb.WriteString(strings.Join(b.Questions, " | "))
		}
		sb.WriteString("\n[RESPOSTA] ")
		sb.WriteString(b.Answer)
		records = append(records, sb.String())
	}
	return strings.Join(records, blockSeparator)
}
