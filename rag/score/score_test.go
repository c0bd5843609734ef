package score

import (
	"strings"
	"testing"

	"github.com/vendaflow/ragcore/rag/canonical"
)

func gradeText(t *testing.T, raw, filename string) Result {
	t.Helper()
	return Evaluate(canonical.Canonicalize(raw, filename))
}

func TestScoreEqualsBreakdownSum(t *testing.T) {
	inputs := []string{
		"",
		"oi",
		"Atendemos de segunda a sexta, das 9h às 18h, com agendamento prévio.",
		"NICHO: clinica\nRESPOSTA CURTA: Sim, atendemos finais de semana. Em caso urgente, escalar para um humano.",
	}
	for _, raw := range inputs {
		res := gradeText(t, raw, "")
		sum := res.Breakdown.Structure + res.Breakdown.Coverage +
			res.Breakdown.ChunkHealth + res.Breakdown.Duplication + res.Breakdown.Reliability
		if res.Score != sum {
			t.Errorf("score %d != breakdown sum %d for %q", res.Score, sum, raw)
		}
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("score out of bounds: %d for %q", res.Score, raw)
		}
	}
}

func TestStatusThresholds(t *testing.T) {
	tests := []struct {
		total int
		want  Status
	}{
		{0, StatusRejected},
		{59, StatusRejected},
		{60, StatusNeedsReview},
		{79, StatusNeedsReview},
		{80, StatusApproved},
		{100, StatusApproved},
	}
	for _, tt := range tests {
		if got := statusFor(tt.total); got != tt.want {
			t.Errorf("statusFor(%d) = %q, want %q", tt.total, got, tt.want)
		}
	}
}

func TestStatusMonotonicity(t *testing.T) {
	rank := map[Status]int{StatusRejected: 0, StatusNeedsReview: 1, StatusApproved: 2}
	prev := statusFor(0)
	for total := 1; total <= 100; total++ {
		cur := statusFor(total)
		if rank[cur] < rank[prev] {
			t.Fatalf("status degraded from %q to %q at score %d", prev, cur, total)
		}
		prev = cur
	}
}

func TestUnlabeledParagraphIsPenalised(t *testing.T) {
	res := gradeText(t, "Atendemos de segunda a sexta, das 9h às 18h, com agendamento prévio.", "")

	if res.Breakdown.Structure >= 30 {
		t.Errorf("expected structure below cap, got %d", res.Breakdown.Structure)
	}
	foundNiche := false
	for _, f := range res.Flags {
		if f == canonical.MissingNiche {
			foundNiche = true
		}
	}
	if !foundNiche {
		t.Errorf("expected %q flag, got %v", canonical.MissingNiche, res.Flags)
	}
}

func TestEmptyDocumentRejected(t *testing.T) {
	res := gradeText(t, "", "")
	if res.Status != StatusRejected {
		t.Fatalf("expected rejected status for empty document, got %q", res.Status)
	}
	hasLowScore := false
	for _, f := range res.Flags {
		if f == FlagLowScore {
			hasLowScore = true
		}
	}
	if !hasLowScore {
		t.Errorf("expected %q flag, got %v", FlagLowScore, res.Flags)
	}
}

func TestWellFormedDocumentApproved(t *testing.T) {
	raw := strings.Join([]string{
		"NICHO: clinica\nAREA: atendimento\nASSUNTO: horarios\nRESPOSTA CURTA: Atendemos de segunda a sábado, das 8h às 19h.",
		"NICHO: clinica\nAREA: atendimento\nASSUNTO: emergencias\nRESPOSTA CURTA: Em caso urgente, escalar imediatamente para um atendente humano.",
	}, "\n\n---\n\n")

	res := gradeText(t, raw, "clinica.txt")
	if res.Status != StatusApproved {
		t.Fatalf("expected approved, got %q (score %d, breakdown %+v)", res.Status, res.Score, res.Breakdown)
	}
	if res.Breakdown.Reliability != 10 {
		t.Errorf("expected reliability cap for escalation guidance, got %d", res.Breakdown.Reliability)
	}
	if res.Flags != nil {
		t.Errorf("expected no flags, got %v", res.Flags)
	}
}

func TestDuplicationPenalty(t *testing.T) {
	raw := strings.Join([]string{
		"NICHO: clinica\nRESPOSTA CURTA: Atendemos todos os dias da semana.",
		"NICHO: clinica\nRESPOSTA CURTA: Atendemos todos os dias da semana.",
	}, "\n\n---\n\n")

	res := gradeText(t, raw, "")
	if res.Breakdown.Duplication >= 15 {
		t.Errorf("expected duplication penalty, got %d", res.Breakdown.Duplication)
	}
}

func TestChunkHealthPenalisesOversizedAnswers(t *testing.T) {
	long := strings.Repeat("conteúdo extenso ", 200) // > 3000 chars
	blocks := canonical.Result{
		Blocks: []canonical.KnowledgeBlock{
			{Niche: "clinica", Answer: long, RawBlock: long},
			{Niche: "clinica", Answer: "Resposta saudável de tamanho normal.", RawBlock: "x"},
		},
	}

	res := Evaluate(blocks)
	if res.Breakdown.ChunkHealth != 10 {
		t.Errorf("expected half the chunk health cap, got %d", res.Breakdown.ChunkHealth)
	}
}
