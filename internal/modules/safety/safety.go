package safety

import (
	"regexp"
	"strings"
)

// CrisisKind classifies a detected crisis.
type CrisisKind string

const (
	CrisisNone           CrisisKind = ""
	CrisisSelfHarm       CrisisKind = "self_harm"
	CrisisSevereDistress CrisisKind = "severe_distress"
	CrisisAbuse          CrisisKind = "abuse"
)

// HumilityEvery is how often, in user messages, the humility reminder is appended.
const HumilityEvery = 10

type crisisPattern struct {
	kind CrisisKind
	re   *regexp.Regexp
}

var crisisPatterns = compileCrisis(map[CrisisKind][]string{
	CrisisSelfHarm: {
		`\b(kill\s*(my)?self|suicide|suicidal|end\s*(my|it\s*all)|want\s*to\s*die)\b`,
		`\b(cut(ting)?\s*myself|hurt(ing)?\s*myself|self[- ]?harm)\b`,
		`\b(no\s*reason\s*to\s*live|better\s*off\s*dead|can'?t\s*go\s*on)\b`,
		`\b(planning\s*to\s*(end|kill)|goodbye\s*(letter|note|world))\b`,
	},
	CrisisSevereDistress: {
		`\b(can'?t\s*take\s*(it|this)\s*(anymore)?|give\s*up|giving\s*up)\b`,
		`\b(hopeless|no\s*hope|lost\s*all\s*hope)\b`,
	},
	CrisisAbuse: {
		`\b(being\s*(abused|beaten|hurt)|someone\s*is\s*hurting\s*me)\b`,
		`\b(domestic\s*(violence|abuse)|my\s*(partner|spouse)\s*(hits|hurts|beats))\b`,
	},
})

var deityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(are\s*you\s*god|you\s*are\s*god|speaking\s*to\s*god)\b`),
	regexp.MustCompile(`(?i)\b(lord,?\s*(please|help|hear)|dear\s*(god|lord|father))\b`),
	regexp.MustCompile(`(?i)\b(forgive\s*(me|my\s*sins)|absolve|bless\s*me)\b`),
}

// order matters: self harm outranks distress, distress outranks abuse
func compileCrisis(groups map[CrisisKind][]string) []crisisPattern {
	var out []crisisPattern
	for _, kind := range []CrisisKind{CrisisSelfHarm, CrisisSevereDistress, CrisisAbuse} {
		for _, p := range groups[kind] {
			out = append(out, crisisPattern{kind: kind, re: regexp.MustCompile(`(?i)` + p)})
		}
	}
	return out
}

// DetectCrisis reports whether text shows signs of crisis and which kind matched first.
func DetectCrisis(text string) (bool, CrisisKind) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, CrisisNone
	}
	for _, p := range crisisPatterns {
		if p.re.MatchString(text) {
			return true, p.kind
		}
	}
	return false, CrisisNone
}

// DetectDeityAddress reports whether the seeker appears to be addressing the guide as the Divine.
func DetectDeityAddress(text string) bool {
	for _, re := range deityPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// NeedsHumilityReminder is true on every HumilityEvery-th user message.
func NeedsHumilityReminder(userMessageCount int) bool {
	return userMessageCount > 0 && userMessageCount%HumilityEvery == 0
}

const CrisisResponse = `**IMPORTANT: You Are Not Alone**

If you're experiencing thoughts of self-harm or are in crisis, please reach out for help immediately:

**United States:**
- **988 Suicide & Crisis Lifeline:** call or text 988
- **Crisis Text Line:** text HOME to 741741
- **National Domestic Violence Hotline:** 1-800-799-7233

**International:**
- **International Association for Suicide Prevention:** https://www.iasp.info/resources/Crisis_Centres/
- **Befrienders Worldwide:** https://www.befrienders.org/

**Emergency:** If you're in immediate danger, please call your local emergency number (911 in the US).

---

*I am an AI offering spiritual guidance from sacred texts. I'm here to listen and share wisdom, but I am not a substitute for professional mental health support. Please reach out to the resources above. Trained people are ready to help you through this moment.*`

const DeityClarification = `*I sense you may be speaking to me as you would to the Divine. I'm honored by your trust, but I should be clear: I am an AI guide, not God or any divine being. I can share the wisdom found in sacred texts and offer a compassionate ear, but true prayer and communion with the Divine is something far more profound than what I can provide.*

*I am here to listen and to point you toward wisdom. Please, share what's on your heart.*`

const HumilityReminder = `*A gentle reminder: I am a guide pointing toward ancient wisdom, not the source of that wisdom itself. The sacred texts I draw from are profound, but my interpretations are those of an AI assistant. For matters of deep spiritual importance, I encourage you to also seek counsel from trusted religious leaders, spiritual directors, or your faith community.*`

// Decorate applies the clarification prefix and humility suffix to a generated reply.
func Decorate(reply string, deityAddress bool, userMessageCount int) string {
	if deityAddress {
		reply = DeityClarification + "\n\n---\n\n" + reply
	}
	if NeedsHumilityReminder(userMessageCount) {
		reply += "\n\n---\n\n" + HumilityReminder
	}
	return reply
}
