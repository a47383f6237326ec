// Package qa answers questions over the ingested document set. The
// orchestrator reads the store and history, never mutates them; the
// caller appends the resulting turn after a successful answer.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/dgallion1/docquest/internal/llm"
	"github.com/dgallion1/docquest/internal/session"
	"github.com/dgallion1/docquest/internal/tokens"
)

// ModelClient is the model-transport collaborator.
type ModelClient interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Answer is a successful turn's output with its token accounting.
type Answer struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Orchestrator assembles bounded prompts and invokes the model.
type Orchestrator struct {
	client         ModelClient
	counter        *tokens.Counter
	maxInputTokens int
	log            *slog.Logger
}

func NewOrchestrator(client ModelClient, counter *tokens.Counter, maxInputTokens int, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:         client,
		counter:        counter,
		maxInputTokens: maxInputTokens,
		log:            log,
	}
}

// Ask answers a question over the store and prior history. On any
// failure it returns *AnsweringError and nothing else happens: no
// history entry, no partial answer, no retry. Over-budget requests are
// refused outright — truncating the context silently would produce
// answers grounded in an arbitrarily cut document set.
func (o *Orchestrator) Ask(ctx context.Context, store *document.Store, question string, history []session.Turn) (Answer, error) {
	contextBlock := BuildContext(store)

	// Counts are computed fresh per turn; the store may have grown
	// since the last question.
	inputTokens := o.counter.Count(contextBlock) + o.counter.Count(question)
	budget := inputTokens + o.counter.Count(serializeHistory(history))
	if budget > o.maxInputTokens {
		return Answer{}, &AnsweringError{
			Kind: KindContextTooLarge,
			Err:  fmt.Errorf("context + question + history is %d tokens, limit %d", budget, o.maxInputTokens),
		}
	}

	text, err := o.client.Chat(ctx, buildMessages(contextBlock, question, history))
	if err != nil {
		kind := KindModelTransportFailure
		if errors.Is(err, llm.ErrMalformedResponse) {
			kind = KindMalformedModelResponse
		}
		return Answer{}, &AnsweringError{Kind: kind, Err: err}
	}

	outputTokens := o.counter.Count(text)
	o.log.Info("answered question",
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"documents", store.Len(),
		"history_turns", len(history),
	)

	return Answer{
		Text:         text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, nil
}
