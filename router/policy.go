package router

import "strings"

// Policy carries the tenant-specific behaviour knobs of a turn: tone
// instructions, the greeting reply and the terminal apology. It is a value
// object; callers pass it by value and the router never mutates it.
type Policy struct {
	// BusinessName is interpolated into prompts and canned replies.
	BusinessName string
	// Instructions is the tenant tone and policy text. The prompt builder
	// places it both before and after the knowledge context so late
	// instructions cannot be buried by a long context window.
	Instructions string
	// GreetingReply answers bare greetings without a model call.
	GreetingReply string
	// NoAnswerMessage is the fixed terminal apology.
	NoAnswerMessage string
}

// DefaultPolicy returns a neutral pt-BR policy suitable for tenants that
// have not customised their tone.
func DefaultPolicy() Policy {
	return Policy{
		BusinessName:    "nossa equipe",
		Instructions:    "Você é um atendente cordial e objetivo. Responda sempre em português, em tom profissional e acolhedor. Nunca invente informações que não estejam no contexto.",
		GreetingReply:   "Oi! Tudo bem? Como posso te ajudar hoje?",
		NoAnswerMessage: "Desculpe, não encontrei essa informação aqui. Posso chamar alguém da equipe para te ajudar?",
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.BusinessName == "" {
		p.BusinessName = def.BusinessName
	}
	if p.Instructions == "" {
		p.Instructions = def.Instructions
	}
	if p.GreetingReply == "" {
		p.GreetingReply = def.GreetingReply
	}
	if p.NoAnswerMessage == "" {
		p.NoAnswerMessage = def.NoAnswerMessage
	}
	return p
}

// buildSystemPrompt assembles the sandwich prompt: policy instructions open
// and close the message, with the knowledge context and the JSON contract in
// the middle. strictExcerpt tightens the evidence instruction for the
// zero-temperature retry.
func buildSystemPrompt(p Policy, contextText string, strictExcerpt bool) string {
	var b strings.Builder

	b.WriteString("Você atende clientes de ")
	b.WriteString(p.BusinessName)
	b.WriteString(".\n")
	b.WriteString(p.Instructions)
	b.WriteString("\n\n")

	b.WriteString("CONTEXTO (única fonte de verdade):\n")
	if strings.TrimSpace(contextText) == "" {
		b.WriteString("(vazio)\n")
	} else {
		b.WriteString(contextText)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Responda APENAS com um objeto JSON válido, sem texto fora do JSON, no formato:\n")
	b.WriteString(`{"answer": "resposta ou null", "evidence_quotes": ["trecho literal do contexto"], "next_step": "próximo passo sugerido"}` + "\n")
	b.WriteString("Regras:\n")
	b.WriteString("- answer deve ser null se o contexto não sustenta uma resposta.\n")
	if strictExcerpt {
		b.WriteString("- evidence_quotes deve conter exatamente um trecho curto, copiado LITERALMENTE do contexto, sem reformular uma palavra.\n")
	} else {
		b.WriteString("- evidence_quotes deve conter trechos copiados literalmente do contexto que sustentam a resposta.\n")
	}
	b.WriteString("- next_step é uma pergunta de esclarecimento ou oferta de encaminhamento quando answer for null.\n\n")

	// Instructions repeated after the context so they survive long windows.
	b.WriteString(p.Instructions)

	return b.String()
}
