package router

import (
	"regexp"
	"strings"
)

// minInventoryContext is the minimum context size, in bytes, before the
// inventory shortcut trusts the context enough to list it.
const minInventoryContext = 100

// maxInventoryItems caps the bulleted list so a large knowledge base does
// not turn a chat reply into a catalogue dump.
const maxInventoryItems = 8

var greetingPattern = regexp.MustCompile(`(?i)^\s*(oi+|ol[áa]|bom dia|boa tarde|boa noite|hey|hello|hi|e a[íi]|eai|opa)\s*[!.,?]*\s*$`)

var inventoryPattern = regexp.MustCompile(`(?i)\b(o que (voc[êe]s?|vc[êe]?s?)\s+(t[êe]m|vendem|oferecem|fazem)|card[áa]pio|menu|me recomenda|quais?\s+(s[ãa]o\s+)?(as\s+)?(op[çc][õo]es|servi[çc]os|produtos|tratamentos))\b`)

// isGreeting reports whether the message is a bare salutation with no
// actual question attached.
func isGreeting(message string) bool {
	return greetingPattern.MatchString(message)
}

// isInventoryQuestion reports whether the user is asking what the business
// offers, which can be answered from context headings without a model call.
func isInventoryQuestion(message string) bool {
	return inventoryPattern.MatchString(message)
}

// inventoryFromContext extracts offer titles from hierarchy lines in the
// context ("clinica > atendimento > limpeza de pele" yields "limpeza de
// pele") and formats them as a short bulleted list. Returns "" when the
// context holds no usable hierarchy lines.
func inventoryFromContext(contextText string) string {
	seen := make(map[string]bool)
	var items []string
	for _, line := range strings.Split(contextText, "\n") {
		if !strings.Contains(line, ">") {
			continue
		}
		segs := strings.Split(line, ">")
		title := strings.TrimSpace(segs[len(segs)-1])
		title = strings.Trim(title, "[]:")
		title = strings.TrimSpace(title)
		if len(title) < 3 {
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, title)
		if len(items) >= maxInventoryItems {
			break
		}
	}
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Temos estas opções:\n")
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("Quer saber mais sobre alguma delas?")
	return b.String()
}
