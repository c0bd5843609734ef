package canonical

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldRule extracts one labeled field from a block via case-insensitive
// "Label: value" matching. Each rule is independent, so poorly formatted
// blocks degrade gracefully instead of failing extraction entirely.
type fieldRule struct {
	name string
	re   *regexp.Regexp
}

func newFieldRule(name string, labels ...string) fieldRule {
	pattern := fmt.Sprintf(`(?im)^[ \t]*(?:%s)[ \t]*:[ \t]*(.+)$`, strings.Join(labels, "|"))
	return fieldRule{name: name, re: regexp.MustCompile(pattern)}
}

func (r fieldRule) extract(block string) (string, bool) {
	m := r.re.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return "", false
	}
	return value, true
}

// Labels are matched in Portuguese and English since tenants upload both.
var (
	nicheRule      = newFieldRule("niche", "NICHO", "NICHE")
	areaRule       = newFieldRule("area", "[AÁ]REA")
	subjectRule    = newFieldRule("subject", "ASSUNTO", "TEMA", "SUBJECT")
	subSubjectRule = newFieldRule("sub_subject", "SUB[-_ ]?ASSUNTO", "SUB[-_ ]?SUBJECT")
	intentionRule  = newFieldRule("intention", "INTEN[CÇ][AÃ]O", "INTENT(?:ION)?")

	questionsSection   = newSectionRule("PERGUNTAS DE TRIAGEM", "PERGUNTAS", "SCREENING QUESTIONS", "QUESTIONS")
	shortAnswerSection = newSectionRule("RESPOSTA CURTA", "SHORT ANSWER")
	guidanceSection    = newSectionRule("ORIENTA[CÇ][AÃ]O", "ORIENTA[CÇ][OÕ]ES", "GUIDANCE")

	// labelLine recognises any uppercase "LABEL:" line; it terminates
	// multiline section capture.
	labelLine = regexp.MustCompile(`^[ \t]*[\p{Lu}][\p{Lu}ÁÃÂÉÊÍÓÕÔÚÇ \-_]{2,}[ \t]*:`)
)

// sectionRule captures a labeled value that may span several lines, reading
// until the next labeled line or the end of the block.
type sectionRule struct {
	re *regexp.Regexp
}

func newSectionRule(labels ...string) sectionRule {
	pattern := fmt.Sprintf(`(?im)^[ \t]*(?:%s)[ \t]*:[ \t]*(.*)$`, strings.Join(labels, "|"))
	return sectionRule{re: regexp.MustCompile(pattern)}
}

func (r sectionRule) extract(block string) (string, bool) {
	loc := r.re.FindStringSubmatchIndex(block)
	if loc == nil {
		return "", false
	}

	var parts []string
	if first := strings.TrimSpace(block[loc[2]:loc[3]]); first != "" {
		parts = append(parts, first)
	}
	for _, line := range strings.Split(block[loc[1]:], "\n") {
		if labelLine.MatchString(line) {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	value := strings.TrimSpace(strings.Join(parts, " "))
	if value == "" {
		return "", false
	}
	return value, true
}

// extractAnswer prefers the SHORT ANSWER section, falls back to GUIDANCE
// and finally to the whole block. No block is ever dropped for missing
// labels; at worst the raw text becomes the answer.
func extractAnswer(block string) string {
	if v, ok := shortAnswerSection.extract(block); ok {
		return v
	}
	if v, ok := guidanceSection.extract(block); ok {
		return v
	}
	return strings.TrimSpace(block)
}

// extractQuestions pulls the screening-question list, splitting on question
// marks and semicolons and filtering fragments too short to be questions.
func extractQuestions(block string) []string {
	section, ok := questionsSection.extract(block)
	if !ok {
		return nil
	}

	var questions []string
	for _, part := range strings.FieldsFunc(section, func(r rune) bool {
		return r == '?' || r == ';'
	}) {
		part = strings.TrimSpace(part)
		if len(part) < 5 {
			continue
		}
		questions = append(questions, part+"?")
	}
	return questions
}
