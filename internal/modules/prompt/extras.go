package prompt

import (
	"fmt"
	"strings"

	"github.com/archisdhar8/religiousAI/internal/platform/chroma"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

// TraditionPassages groups comparison passages under one tradition.
type TraditionPassages struct {
	Tradition string
	Passages  []chroma.Passage
}

func CompareSystem() string {
	return fmt.Sprintf(`You are %s, offering comparative spiritual wisdom.
Your role is to show how different traditions approach the same fundamental human questions,
highlighting both unique perspectives and universal truths.`, AdvisorName)
}

func Compare(topic string, groups []TraditionPassages) string {
	var ctx []string
	for _, g := range groups {
		ctx = append(ctx, fmt.Sprintf("\n**%s**:", g.Tradition))
		for _, p := range g.Passages {
			ctx = append(ctx, fmt.Sprintf("[%s]: %s", orUnknown(p.Scripture), textutil.Truncate(strings.TrimSpace(p.Content), PassageChars)))
		}
	}
	return fmt.Sprintf(`TOPIC: %s

PASSAGES FROM DIFFERENT TRADITIONS:
%s

Please provide a thoughtful comparison that:
1. Briefly summarizes each tradition's perspective
2. Highlights unique insights from each
3. Identifies common threads and universal wisdom
4. Offers a synthesis that honors all perspectives

Format with clear sections for each tradition, then a "Common Wisdom" section.`, topic, strings.Join(ctx, "\n"))
}

func DailySystem() string {
	return fmt.Sprintf("You are %s. Create a brief, inspiring daily reflection.", AdvisorName)
}

func Daily(tradition, passage string) string {
	return fmt.Sprintf(`Based on this passage from %s:

"%s"

Write a 2-3 sentence daily wisdom reflection that:
- Captures the essence of this teaching
- Makes it relevant to modern daily life
- Inspires and uplifts

Keep it concise and memorable.`, orUnknown(tradition), textutil.Clip(strings.TrimSpace(passage), DailyPassage))
}

func JournalSystem() string {
	return fmt.Sprintf(`You are %s in journal reflection mode.
You are not solving problems. You are being a compassionate witness.
Mirror back what you hear, notice patterns gently, and offer one small piece of wisdom.`, AdvisorName)
}

func Journal(entry, context, seeker string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RELEVANT WISDOM:\n%s\n\n", context)
	writeSection(&b, seeker)
	fmt.Fprintf(&b, "JOURNAL ENTRY:\n%s\n\n", entry)
	b.WriteString(`Offer a gentle reflection that:
1. Acknowledges what you hear in their words
2. Notices any themes or patterns (especially from past entries)
3. Shares one relevant piece of wisdom for contemplation
4. Ends with an open question for further reflection

Keep your tone warm, curious, and supportive.`)
	return b.String()
}
