package canonical

import (
	"reflect"
	"strings"
	"testing"
)

func TestCanonicalizePlainParagraph(t *testing.T) {
	raw := "Atendemos de segunda a sexta, das 9h às 18h, com agendamento prévio."

	res := Canonicalize(raw, "")
	if len(res.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(res.Blocks))
	}

	block := res.Blocks[0]
	if block.Niche != DefaultNiche {
		t.Errorf("expected default niche, got %q", block.Niche)
	}
	if block.Answer != raw {
		t.Errorf("expected full paragraph as answer, got %q", block.Answer)
	}

	found := false
	for _, f := range res.MissingFields {
		if f == MissingNiche {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q flagged missing, got %v", MissingNiche, res.MissingFields)
	}
}

func TestCanonicalizeLabeledBlock(t *testing.T) {
	raw := strings.Join([]string{
		"NICHO: clinica",
		"AREA: atendimento",
		"ASSUNTO: horarios",
		"RESPOSTA CURTA: Sim, atendemos finais de semana.",
	}, "\n")

	res := Canonicalize(raw, "clinica-faq.txt")
	if len(res.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(res.Blocks))
	}

	block := res.Blocks[0]
	if block.Niche != "clinica" {
		t.Errorf("expected niche clinica, got %q", block.Niche)
	}
	if block.Answer != "Sim, atendemos finais de semana." {
		t.Errorf("unexpected answer %q", block.Answer)
	}
	for _, f := range res.MissingFields {
		if f == MissingNiche || f == MissingAnswer {
			t.Errorf("field %q should not be flagged missing", f)
		}
	}
}

func TestCanonicalizeSplitsOnDashedRule(t *testing.T) {
	raw := "NICHO: clinica\nRESPOSTA CURTA: Primeira resposta da clínica.\n\n---\n\nNICHO: clinica\nRESPOSTA CURTA: Segunda resposta da clínica."

	res := Canonicalize(raw, "")
	if len(res.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(res.Blocks))
	}
	if res.Blocks[0].Answer == res.Blocks[1].Answer {
		t.Errorf("blocks should carry distinct answers")
	}
}

func TestCanonicalizeKeepsGluedDashedUnderline(t *testing.T) {
	// A dashed underline attached to its paragraph is content, only a rule
	// surrounded by blank lines separates blocks.
	raw := "NICHO: clinica\nTabela de horários\n----------\nRESPOSTA CURTA: Atendemos de segunda a sexta, das 9h às 18h."

	res := Canonicalize(raw, "")
	if len(res.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(res.Blocks))
	}
	if res.Blocks[0].Answer != "Atendemos de segunda a sexta, das 9h às 18h." {
		t.Fatalf("answer lost across the underline: %q", res.Blocks[0].Answer)
	}
}

func TestCanonicalizeFiltersNoise(t *testing.T) {
	raw := "ok\n\ncurto\n\nEste bloco tem conteúdo suficiente para ser mantido na base."

	res := Canonicalize(raw, "")
	if len(res.Blocks) != 1 {
		t.Fatalf("expected noise candidates filtered, got %d blocks", len(res.Blocks))
	}
}

func TestCanonicalizeZeroBlocksIsValid(t *testing.T) {
	res := Canonicalize("oi", "")
	if len(res.Blocks) != 0 {
		t.Fatalf("expected 0 blocks, got %d", len(res.Blocks))
	}
	if res.CanonicalText != "" {
		t.Errorf("expected empty canonical text, got %q", res.CanonicalText)
	}
	if res.Stats.BlockCount != 0 {
		t.Errorf("expected zero block count")
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	raw := "NICHO: delivery\nAREA: pedidos\nASSUNTO: prazo\nRESPOSTA CURTA: Entregamos em até 50 minutos.\n\nOutro bloco com informação adicional sobre a taxa de entrega."

	first := Canonicalize(raw, "delivery.txt")
	second := Canonicalize(raw, "delivery.txt")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("canonicalization must be deterministic")
	}
}

func TestCanonicalTextFormat(t *testing.T) {
	raw := strings.Join([]string{
		"NICHO: clinica",
		"AREA: atendimento",
		"ASSUNTO: horarios",
		"SUB-ASSUNTO: fim de semana",
		"INTENCAO: agendar",
		"PERGUNTAS: Vocês abrem sábado? Atendem domingo?",
		"RESPOSTA CURTA: Sim, atendemos finais de semana.",
	}, "\n")

	res := Canonicalize(raw, "")
	text := res.CanonicalText
	if !strings.Contains(text, "[CONTEXTO] clinica > atendimento > horarios > fim de semana") {
		t.Errorf("missing context header in %q", text)
	}
	if !strings.Contains(text, "[INTENCAO] agendar") {
		t.Errorf("missing intent tag in %q", text)
	}
	if !strings.Contains(text, "[PERGUNTAS DE TRIAGEM] ") {
		t.Errorf("missing screening questions in %q", text)
	}
	if !strings.Contains(text, "[RESPOSTA] Sim, atendemos finais de semana.") {
		t.Errorf("missing answer tag in %q", text)
	}
}

func TestExtractQuestionsSplitsAndFilters(t *testing.T) {
	block := "PERGUNTAS: Vocês abrem sábado? Atendem domingo? ok"
	got := extractQuestions(block)
	want := []string{"Vocês abrem sábado?", "Atendem domingo?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNicheFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"clinica-sorriso-faq.pdf", "clinica"},
		{"IMOBILIARIA_central.txt", "imobiliaria"},
		{"cardapio-delivery.md", "delivery"},
		{"notas-gerais.txt", DefaultNiche},
		{"", DefaultNiche},
	}
	for _, tt := range tests {
		if got := NicheFromFilename(tt.filename); got != tt.want {
			t.Errorf("NicheFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
