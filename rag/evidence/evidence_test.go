package evidence

import (
	"strings"
	"testing"
)

func TestValidateEmptyContext(t *testing.T) {
	res := Validate("   ", []string{"qualquer citação aqui"}, DefaultOptions())
	if res.OK {
		t.Fatal("empty context must never validate")
	}
	if len(res.Reasons) != 1 || res.Reasons[0] != ReasonEmptyContext {
		t.Fatalf("expected %q reason, got %v", ReasonEmptyContext, res.Reasons)
	}
}

func TestValidateNoQuotes(t *testing.T) {
	res := Validate("Atendemos das 9h às 18h.", nil, DefaultOptions())
	if res.OK {
		t.Fatal("missing quotes must never validate")
	}
	if len(res.Reasons) != 1 || res.Reasons[0] != ReasonNoQuotes {
		t.Fatalf("expected %q reason, got %v", ReasonNoQuotes, res.Reasons)
	}
}

func TestValidateStrictSubstring(t *testing.T) {
	ctx := "Atendemos das 9h às 18h."
	res := Validate(ctx, []string{"Atendemos das 9h às 18h."}, DefaultOptions())
	if !res.OK {
		t.Fatalf("expected strict match, got %+v", res)
	}
	if len(res.Matched) != 1 || res.Matched[0] != "Atendemos das 9h às 18h." {
		t.Fatalf("matched must hold the quote verbatim, got %v", res.Matched)
	}
}

func TestValidateAccentAndCaseInsensitive(t *testing.T) {
	ctx := "ATENDEMOS DAS 9H ÀS 18H todos os dias."
	res := Validate(ctx, []string{"atendemos das 9h as 18h"}, DefaultOptions())
	if !res.OK {
		t.Fatalf("verbatim substring modulo case/accents must always be accepted, got %+v", res)
	}
}

func TestValidateFabricatedQuote(t *testing.T) {
	ctx := "Atendemos das 9h às 18h."
	res := Validate(ctx, []string{"Nós fazemos cirurgias plásticas grátis"}, DefaultOptions())
	if res.OK {
		t.Fatalf("fabricated quote must be rejected, got %+v", res)
	}
	if len(res.Reasons) == 0 {
		t.Fatal("expected a rejection reason")
	}
	reason := res.Reasons[0]
	if reason != ReasonNoStrictMatch && !strings.HasPrefix(reason, "low_overlap") {
		t.Fatalf("expected fuzzy/no-match explanation, got %q", reason)
	}
}

func TestValidateQuoteTooShort(t *testing.T) {
	res := Validate("Atendemos das 9h às 18h.", []string{"9h às 18h"}, DefaultOptions())
	if res.OK {
		t.Fatalf("short quote must be rejected, got %+v", res)
	}
	if res.Reasons[0] != ReasonQuoteTooShort {
		t.Fatalf("expected %q, got %v", ReasonQuoteTooShort, res.Reasons)
	}
}

func TestValidateFuzzySegmentMatch(t *testing.T) {
	ctx := "A clínica oferece avaliação gratuita para novos pacientes interessados\nO estacionamento fica na rua lateral"
	// paraphrase sharing most tokens with the first segment
	quote := "clínica oferece avaliação gratuita para pacientes novos interessados"

	res := Validate(ctx, []string{quote}, DefaultOptions())
	if !res.OK {
		t.Fatalf("expected fuzzy segment match, got %+v", res)
	}
}

func TestValidateFuzzyIsSegmentScoped(t *testing.T) {
	// every token of the quote appears somewhere in the context, but
	// scattered across different lines; no single segment supports it
	ctx := strings.Join([]string{
		"a clinica realiza procedimentos registrados",
		"cirurgias exigem avaliacao presencial marcada",
		"plasticas nao fazem parte da tabela geral",
		"gratis somente campanhas pontuais anunciadas",
	}, "\n")
	quote := "clinica realiza cirurgias plasticas gratis sempre avaliacao geral"

	res := Validate(ctx, []string{quote}, DefaultOptions())
	if res.OK {
		t.Fatalf("scattered tokens across segments must not validate, got %+v", res)
	}
}

func TestValidateMixedQuotes(t *testing.T) {
	ctx := "Atendemos das 9h às 18h de segunda a sexta."
	quotes := []string{
		"Atendemos das 9h às 18h",
		"Fazemos entregas para todo o Brasil imediatamente",
	}
	res := Validate(ctx, quotes, DefaultOptions())
	if !res.OK {
		t.Fatalf("one exact quote satisfies MinQuotes=1, got %+v", res)
	}
	if len(res.Matched) != 1 {
		t.Fatalf("expected exactly the exact quote matched, got %v", res.Matched)
	}
	if len(res.Reasons) == 0 {
		t.Fatal("rejected quote should leave a diagnostic reason")
	}
}

func TestValidateSoundness(t *testing.T) {
	ctx := "O plano básico custa 99 reais por mês e inclui suporte por email durante a semana."
	quotes := []string{
		"plano básico custa 99 reais",
		"suporte por email durante a semana",
		"garantia vitalícia incondicional total",
	}
	res := Validate(ctx, quotes, DefaultOptions())

	normCtx := flatten(Normalize(ctx))
	for _, m := range res.Matched {
		if !strings.Contains(normCtx, flatten(Normalize(m))) {
			// must then be a fuzzy segment match above threshold
			tokens := tokenize(flatten(Normalize(m)))
			best := bestSegmentOverlap(tokens, contextSegments(Normalize(ctx)))
			if best < DefaultOptions().MinTokenOverlap {
				t.Errorf("matched quote %q is neither substring nor ≥0.55 overlap", m)
			}
		}
	}
	for _, m := range res.Matched {
		if m == "garantia vitalícia incondicional total" {
			t.Error("unsupported quote must not be matched")
		}
	}
}

func TestValidateMinQuotesThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.MinQuotes = 2

	ctx := "Atendemos das 9h às 18h de segunda a sexta."
	res := Validate(ctx, []string{"Atendemos das 9h às 18h"}, opts)
	if res.OK {
		t.Fatalf("one match must not satisfy MinQuotes=2, got %+v", res)
	}
	if len(res.Matched) != 1 {
		t.Fatalf("the match itself is still recorded, got %v", res.Matched)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Atendemos às 18h!", "atendemos as 18h"},
		{"  MUITO   espaço\t aqui ", "muito espaco aqui"},
		{"linha um\nlinha dois", "linha um\nlinha dois"},
		{"pontuação: vírgulas, pontos...", "pontuacao virgulas pontos"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
