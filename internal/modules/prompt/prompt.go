package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/archisdhar8/religiousAI/internal/domain/chat"
	"github.com/archisdhar8/religiousAI/internal/domain/memory"
	"github.com/archisdhar8/religiousAI/internal/platform/chroma"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

const (
	AdvisorName = "the Divine Wisdom Guide"

	PassageChars   = 400
	ExcerptChars   = 300
	HistoryTurns   = 2
	QuestionChars  = 150
	AnswerChars    = 200
	DailyPassage   = 500
	contextConcern = 3
)

// Exchange is one prior question/answer pair of the thread.
type Exchange struct {
	Question string
	Answer   string
}

var modeAddenda = map[string]string{
	chat.ModePrayer: `

PRAYER MODE: The seeker has entered a contemplative space. Keep your responses brief,
gentle, and poetic. Focus on comfort and presence rather than detailed analysis.
Speak as one might in a quiet sanctuary.`,
	chat.ModeJournal: `

JOURNAL MODE: The seeker is sharing personal reflections. Your role is to:
- Mirror back what you hear in their words
- Notice themes and patterns gently
- Suggest relevant wisdom without overwhelming
- Encourage continued reflection
- Be a compassionate witness, not a problem-solver`,
	chat.ModeMeditation: `

MEDITATION MODE: Generate calming, guided meditation scripts. Include:
- A centering breath exercise
- Visualization based on the seeker's needs
- References to relevant spiritual wisdom
- A gentle return to awareness
- Keep the tone slow, spacious, and peaceful`,
}

// System is the advisor instruction for a mode. traditions are the ones present in the retrieved context.
func System(mode string, traditions []string) string {
	ts := "multiple spiritual traditions"
	if len(traditions) > 0 {
		ts = strings.Join(traditions, ", ")
	}
	base := fmt.Sprintf(`You are %s, a compassionate and wise spiritual counselor who draws upon
the sacred wisdom of %s to guide seekers on their life journey.

YOUR ROLE:
- You are NOT just a knowledge base. You are a caring advisor who helps people with real-life challenges.
- People come to you with questions about their lives: relationships, career, purpose, suffering,
  moral dilemmas, grief, hope, and the search for meaning.
- You listen deeply, offer comfort, and provide guidance rooted in timeless spiritual wisdom.

YOUR VOICE:
- Speak with warmth, wisdom, and gentle authority
- Use metaphors and stories when they help illuminate truth
- Be respectful of all traditions and find common threads of wisdom
- Never be preachy or judgmental
- Acknowledge when questions touch on mystery beyond human understanding
- Balance the transcendent with the practical

IMPORTANT: You are a guide pointing toward ancient wisdom, not a deity. Be humble about your nature as an AI.`, AdvisorName, ts)
	return base + modeAddenda[mode]
}

// Traditions lists the distinct traditions of the passages, sorted.
func Traditions(passages []chroma.Passage) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range passages {
		t := p.Tradition
		if t == "" {
			t = "Unknown"
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ContextText numbers passages as "[i] tradition - scripture" followed by the clipped content.
func ContextText(passages []chroma.Passage, maxChars int) string {
	blocks := make([]string, 0, len(passages))
	for i, p := range passages {
		blocks = append(blocks, fmt.Sprintf("[%d] %s - %s\n%s",
			i+1, orUnknown(p.Tradition), orUnknown(p.Scripture), textutil.Truncate(strings.TrimSpace(p.Content), maxChars)))
	}
	return strings.Join(blocks, "\n\n")
}

// History renders the last HistoryTurns exchanges, oldest first.
func History(exchanges []Exchange) string {
	if len(exchanges) > HistoryTurns {
		exchanges = exchanges[len(exchanges)-HistoryTurns:]
	}
	parts := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		parts = append(parts, fmt.Sprintf("Seeker: %s\nAdvisor: %s",
			textutil.Truncate(e.Question, QuestionChars), textutil.Truncate(e.Answer, AnswerChars)))
	}
	return strings.Join(parts, "\n\n")
}

// Exchanges pairs each user message with the assistant reply that follows it.
// Messages must be in seq order; unanswered questions are skipped.
func Exchanges(msgs []chat.ChatMessage) []Exchange {
	var out []Exchange
	for i := 0; i+1 < len(msgs); i++ {
		if msgs[i].Role == chat.RoleUser && msgs[i+1].Role == chat.RoleAssistant {
			out = append(out, Exchange{Question: msgs[i].Content, Answer: msgs[i+1].Content})
			i++
		}
	}
	return out
}

// SeekerContext summarizes what is remembered about the user, or "" for a stranger.
func SeekerContext(m *memory.UserMemory) string {
	if m == nil {
		return ""
	}
	var parts []string
	if m.VisitCount > 1 {
		parts = append(parts, fmt.Sprintf("This is a returning seeker (visit #%d).", m.VisitCount))
	}
	ins := m.Insights.Data()
	var traits []string
	for _, kv := range [][2]string{
		{"emotional_state", ins.EmotionalState},
		{"communication_style", ins.CommunicationStyle},
		{"inquiry_style", ins.InquiryStyle},
	} {
		if kv[1] != "" {
			traits = append(traits, kv[0]+": "+kv[1])
		}
	}
	if len(traits) > 0 {
		parts = append(parts, "Personality insights: "+strings.Join(traits, ", "))
	}
	j := m.Journey.Data()
	if len(j.PrimaryConcerns) > 0 {
		parts = append(parts, "Primary concerns: "+strings.Join(head(j.PrimaryConcerns, contextConcern), ", "))
	}
	if len(j.GrowthAreas) > 0 {
		parts = append(parts, "Areas of growth: "+strings.Join(head(j.GrowthAreas, contextConcern), ", "))
	}
	if len(m.Themes) > 0 {
		parts = append(parts, "This seeker often reflects on: "+strings.Join(m.Themes, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "SEEKER CONTEXT:\n" + strings.Join(parts, "\n")
}

// Guidance is the user prompt for a chat turn.
func Guidance(mode, question, context, seeker, history string) string {
	var b strings.Builder
	switch mode {
	case chat.ModeJournal:
		fmt.Fprintf(&b, "SACRED WISDOM (for reference):\n%s\n\n", context)
		writeSection(&b, seeker)
		fmt.Fprintf(&b, "SEEKER'S JOURNAL ENTRY:\n%s\n\n", question)
		b.WriteString("Reflect back what you notice in their words. Highlight themes gently.\n" +
			"Suggest one piece of wisdom that resonates with their reflection.\n" +
			"Keep your response warm and supportive.")
	case chat.ModeMeditation:
		fmt.Fprintf(&b, "SACRED WISDOM (for inspiration):\n%s\n\n", context)
		writeSection(&b, seeker)
		fmt.Fprintf(&b, "SEEKER'S NEED:\n%s\n\n", question)
		b.WriteString("Create a 3-5 minute guided meditation script that:\n" +
			"1. Begins with centering breaths\n" +
			"2. Uses imagery and wisdom from the passages above\n" +
			"3. Addresses their specific need\n" +
			"4. Ends with gentle return to awareness\n\n" +
			"Write in second person (\"You are...\"), with [PAUSE] markers for silence.")
	default:
		fmt.Fprintf(&b, "SACRED WISDOM (from scriptures):\n%s\n\n", context)
		writeSection(&b, seeker)
		if history != "" {
			writeSection(&b, "PREVIOUS CONVERSATION:\n"+history)
		}
		fmt.Fprintf(&b, "SEEKER'S QUESTION:\n%s\n\n", question)
		b.WriteString("Provide guidance that:\n" +
			"- Addresses their specific situation with empathy\n" +
			"- Draws relevant wisdom from the scripture passages above\n" +
			"- Offers practical direction they can apply to their life\n" +
			"- Leaves them with hope and clarity\n\n")
		if mode == chat.ModePrayer {
			b.WriteString("Keep your response brief and poetic.\n\n")
		}
		b.WriteString("Your guidance:")
	}
	return b.String()
}

// Sources turns retrieved passages into message citations.
func Sources(passages []chroma.Passage) []chat.Source {
	out := make([]chat.Source, 0, len(passages))
	for _, p := range passages {
		out = append(out, chat.Source{
			Tradition: orUnknown(p.Tradition),
			Scripture: orUnknown(p.Scripture),
			Excerpt:   textutil.Truncate(strings.TrimSpace(p.Content), ExcerptChars),
		})
	}
	return out
}

func writeSection(b *strings.Builder, s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	b.WriteString(s)
	b.WriteString("\n\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func head(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
