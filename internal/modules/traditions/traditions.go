package traditions

import "strings"

// AllTraditions is the client's label for "no tradition filter".
const AllTraditions = "All Traditions"

type Tradition struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var catalogue = []Tradition{
	{Key: "christianity", Name: "Christianity", Description: "The Bible, Old and New Testaments"},
	{Key: "islam", Name: "Islam", Description: "The Quran and Hadith"},
	{Key: "judaism", Name: "Judaism", Description: "The Torah, Tanakh and Talmud"},
	{Key: "hinduism", Name: "Hinduism", Description: "The Bhagavad Gita, Upanishads and Vedas"},
	{Key: "buddhism", Name: "Buddhism", Description: "The Dhammapada and Buddhist sutras"},
	{Key: "sikhism", Name: "Sikhism", Description: "The Guru Granth Sahib"},
	{Key: "taoism", Name: "Taoism", Description: "The Tao Te Ching and Zhuangzi"},
	{Key: "shinto", Name: "Shinto", Description: "The Kojiki and Nihon Shoki"},
}

var byKey = func() map[string]Tradition {
	m := make(map[string]Tradition, len(catalogue))
	for _, t := range catalogue {
		m[t.Key] = t
		m[strings.ToLower(t.Name)] = t
	}
	return m
}()

// All returns the catalogue in display order.
func All() []Tradition {
	out := make([]Tradition, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup accepts either the key or the display name, case-insensitively.
func Lookup(raw string) (Tradition, bool) {
	t, ok := byKey[strings.ToLower(strings.TrimSpace(raw))]
	return t, ok
}

// Filter returns the display name used as the retrieval metadata filter,
// or "" when raw means every tradition.
func Filter(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, AllTraditions) || strings.EqualFold(raw, "all") {
		return ""
	}
	if t, ok := Lookup(raw); ok {
		return t.Name
	}
	return raw
}

// Normalize maps raw to a catalogue key. Unknown values return "" and false.
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, AllTraditions) {
		return "", true
	}
	t, ok := Lookup(raw)
	if !ok {
		return "", false
	}
	return t.Key, true
}

// DefaultCompare is used when a comparison names fewer than two traditions.
var DefaultCompare = []string{"Christianity", "Buddhism", "Hinduism", "Islam", "Taoism"}
