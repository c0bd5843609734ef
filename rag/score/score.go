package score

import (
	"strings"

	"github.com/vendaflow/ragcore/rag/canonical"
)

// Status is the ingestion decision derived from the overall score.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusNeedsReview Status = "needs_review"
	StatusRejected    Status = "rejected"
)

// FlagLowScore is appended when the document lands below the rejection
// threshold.
const FlagLowScore = "low_score"

// Sub-score caps. The five dimensions are additive and independent.
const (
	maxStructure   = 30
	maxCoverage    = 25
	maxChunkHealth = 20
	maxDuplication = 15
	maxReliability = 10
)

// Answer lengths outside this window count against chunk health.
const (
	healthyAnswerMin = 15
	healthyAnswerMax = 3000
)

// Breakdown carries the five capped sub-scores summing to the overall score.
type Breakdown struct {
	Structure   int `json:"structure"`
	Coverage    int `json:"coverage"`
	ChunkHealth int `json:"chunk_health"`
	Duplication int `json:"duplication"`
	Reliability int `json:"reliability"`
}

// Result is one document's quality grade, persisted alongside the document
// at upload time and never mutated afterward.
type Result struct {
	Score     int       `json:"score"`
	Status    Status    `json:"status"`
	Breakdown Breakdown `json:"breakdown"`
	Flags     []string  `json:"flags,omitempty"`
}

// escalationKeywords reward documents that include proper safety and
// human-handoff guidance. Incentive only, not a correctness check.
var escalationKeywords = []string{
	"escalar", "escalate", "humano", "human",
	"não diagnostique", "nao diagnostique", "do not diagnose",
	"urgente", "urgent", "emergência", "emergencia",
}

// Evaluate grades a canonicalized document 0-100. The grade feeds the
// operator review queue; it does not block indexing.
func Evaluate(res canonical.Result) Result {
	breakdown := Breakdown{
		Structure:   structureScore(res.Blocks),
		Coverage:    coverageScore(res.MissingFields),
		ChunkHealth: chunkHealthScore(res.Blocks),
		Duplication: duplicationScore(res.Blocks),
		Reliability: reliabilityScore(res.Blocks),
	}

	total := breakdown.Structure + breakdown.Coverage + breakdown.ChunkHealth +
		breakdown.Duplication + breakdown.Reliability

	status := statusFor(total)

	flags := make([]string, 0, len(res.MissingFields)+1)
	flags = append(flags, res.MissingFields...)
	if status == StatusRejected {
		flags = append(flags, FlagLowScore)
	}
	if len(flags) == 0 {
		flags = nil
	}

	return Result{
		Score:     total,
		Status:    status,
		Breakdown: breakdown,
		Flags:     flags,
	}
}

func statusFor(total int) Status {
	switch {
	case total < 60:
		return StatusRejected
	case total < 80:
		return StatusNeedsReview
	default:
		return StatusApproved
	}
}

// structureScore rewards blocks carrying both a real niche and a usable
// answer, scaled to the cap.
func structureScore(blocks []canonical.KnowledgeBlock) int {
	if len(blocks) == 0 {
		return 0
	}
	good := 0
	for _, b := range blocks {
		if b.Niche != canonical.DefaultNiche && len(b.Answer) > 10 {
			good++
		}
	}
	return maxStructure * good / len(blocks)
}

// coverageScore starts at the cap and subtracts for globally missing
// required fields, floored at zero.
func coverageScore(missing []string) int {
	score := maxCoverage
	for _, field := range missing {
		switch field {
		case canonical.MissingNiche:
			score -= 10
		case canonical.MissingAnswer:
			score -= 15
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// chunkHealthScore penalises answers outside the healthy length window.
func chunkHealthScore(blocks []canonical.KnowledgeBlock) int {
	if len(blocks) == 0 {
		return 0
	}
	bad := 0
	for _, b := range blocks {
		if len(b.Answer) < healthyAnswerMin || len(b.Answer) > healthyAnswerMax {
			bad++
		}
	}
	return maxChunkHealth * (len(blocks) - bad) / len(blocks)
}

// duplicationScore penalises verbatim-duplicate answers.
func duplicationScore(blocks []canonical.KnowledgeBlock) int {
	if len(blocks) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		unique[b.Answer] = struct{}{}
	}
	return maxDuplication * len(unique) / len(blocks)
}

// reliabilityScore awards the full cap when any block mentions escalation
// or safety guidance.
func reliabilityScore(blocks []canonical.KnowledgeBlock) int {
	for _, b := range blocks {
		haystack := strings.ToLower(b.Answer + " " + b.RawBlock)
		for _, kw := range escalationKeywords {
			if strings.Contains(haystack, kw) {
				return maxReliability
			}
		}
	}
	return 0
}
