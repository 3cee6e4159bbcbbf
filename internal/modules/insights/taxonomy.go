package insights

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type ThemeDef struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type LabelDef struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

type InsightDefs struct {
	EmotionalState        []LabelDef `yaml:"emotional_state"`
	DefaultEmotionalState string     `yaml:"default_emotional_state"`
}

// Taxonomy is the closed theme vocabulary plus the keyword tables that feed traits.
type Taxonomy struct {
	Themes            []ThemeDef                     `yaml:"themes"`
	SupportFromThemes map[string]string              `yaml:"support_from_themes"`
	TraitKeywords     map[string]map[string][]string `yaml:"trait_keywords"`
	Insights          InsightDefs                    `yaml:"insights"`

	themeNames map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded taxonomy. It panics if the embedded file is malformed.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Load(taxonomyYAML)
		if err != nil {
			panic(fmt.Sprintf("insights: embedded taxonomy: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

func Load(b []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if len(t.Themes) == 0 {
		return nil, fmt.Errorf("taxonomy has no themes")
	}
	t.themeNames = make(map[string]struct{}, len(t.Themes))
	for i := range t.Themes {
		name := strings.ToLower(strings.TrimSpace(t.Themes[i].Name))
		if name == "" {
			return nil, fmt.Errorf("theme %d has no name", i)
		}
		if _, dup := t.themeNames[name]; dup {
			return nil, fmt.Errorf("duplicate theme %q", name)
		}
		t.Themes[i].Name = name
		t.Themes[i].Keywords = lowerAll(t.Themes[i].Keywords)
		t.themeNames[name] = struct{}{}
	}
	for theme := range t.SupportFromThemes {
		if _, ok := t.themeNames[theme]; !ok {
			return nil, fmt.Errorf("support mapping names unknown theme %q", theme)
		}
	}
	for _, values := range t.TraitKeywords {
		for v, kws := range values {
			values[v] = lowerAll(kws)
		}
	}
	for i := range t.Insights.EmotionalState {
		t.Insights.EmotionalState[i].Keywords = lowerAll(t.Insights.EmotionalState[i].Keywords)
	}
	return &t, nil
}

// ThemeNames lists the closed theme set in taxonomy order.
func (t *Taxonomy) ThemeNames() []string {
	out := make([]string, 0, len(t.Themes))
	for _, th := range t.Themes {
		out = append(out, th.Name)
	}
	return out
}

// DetectThemes returns the themes whose keywords occur in text, in taxonomy order.
func (t *Taxonomy) DetectThemes(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var out []string
	for _, th := range t.Themes {
		if containsAny(lower, th.Keywords) {
			out = append(out, th.Name)
		}
	}
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
