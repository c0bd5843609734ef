package canonical

import "strings"

// nicheFamilies maps filename keyword families to the vertical tag used
// when blocks carry no explicit NICHO label. Covers the three verticals
// the CRM onboards today.
var nicheFamilies = []struct {
	tag      string
	keywords []string
}{
	{"clinica", []string{"clinic", "clinica", "consultorio", "odonto", "estetica", "saude"}},
	{"imobiliaria", []string{"realestate", "imobiliaria", "imovel", "imoveis", "corretor"}},
	{"delivery", []string{"delivery", "restaurante", "lanchonete", "pizzaria", "food"}},
}

// NicheFromFilename guesses the business vertical from filename substrings,
// falling back to the generic tag.
func NicheFromFilename(filename string) string {
	name := strings.ToLower(filename)
	if name == "" {
		return DefaultNiche
	}
	for _, family := range nicheFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(name, kw) {
				return family.tag
			}
		}
	}
	return DefaultNiche
}
