package qa

import (
	"strings"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/dgallion1/docquest/internal/llm"
	"github.com/dgallion1/docquest/internal/session"
)

const systemPreamble = `You are a document analysis assistant. Answer questions using only the documents provided below. Quote figures and names exactly as they appear. If the documents do not contain the answer, say so instead of guessing.`

// BuildContext serializes the document store into the context block sent
// to the model. Records appear in upload order so the block is stable
// between turns.
func BuildContext(store *document.Store) string {
	var b strings.Builder
	for _, rec := range store.All() {
		b.WriteString("## Document: ")
		b.WriteString(rec.Name)
		b.WriteString("\n")
		for _, u := range rec.Units {
			if u.Label != "" {
				b.WriteString("[")
				b.WriteString(u.Label)
				b.WriteString("]\n")
			}
			b.WriteString(u.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// serializeHistory flattens prior turns for budget counting. It mirrors
// the message payload the turns add to the model call.
func serializeHistory(history []session.Turn) string {
	var b strings.Builder
	for _, t := range history {
		b.WriteString("Q: ")
		b.WriteString(t.Question)
		b.WriteString("\nA: ")
		b.WriteString(t.Answer)
		b.WriteString("\n")
	}
	return b.String()
}

// buildMessages composes the model call: preamble plus context as the
// system message, prior turns for multi-turn coherence, then the new
// question.
func buildMessages(contextBlock, question string, history []session.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, 2+2*len(history))
	msgs = append(msgs, llm.Message{
		Role:    "system",
		Content: systemPreamble + "\n\n" + contextBlock,
	})
	for _, t := range history {
		msgs = append(msgs,
			llm.Message{Role: "user", Content: t.Question},
			llm.Message{Role: "assistant", Content: t.Answer},
		)
	}
	return append(msgs, llm.Message{Role: "user", Content: question})
}
