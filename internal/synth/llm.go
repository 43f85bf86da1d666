package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/documind-ai/documind-go/internal/core"
)

// systemPrompt constrains the model to the supplied passages. Grounding
// lives in the prompt, correctness of the citations lives in the caller:
// the passage list the orchestrator attaches to the response is the
// authoritative citation set regardless of what the model writes.
const systemPrompt = `You are a documentation assistant. Answer the question using only the context passages provided. If the passages do not contain the answer, say so plainly. Be concise. When you draw on a passage, mention its source name in parentheses.`

// LLM is a Synthesizer backed by an eino chat model.
type LLM struct {
	model     model.BaseChatModel
	maxTokens int
}

var _ Synthesizer = (*LLM)(nil)

// NewLLM wraps an eino chat model. maxContextTokens caps the passage text
// included in the prompt (0 selects DefaultMaxContextTokens).
func NewLLM(chatModel model.BaseChatModel, maxContextTokens int) (*LLM, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("synth: chat model must not be nil: %w", core.ErrConfig)
	}
	if maxContextTokens <= 0 {
		maxContextTokens = DefaultMaxContextTokens
	}
	return &LLM{model: chatModel, maxTokens: maxContextTokens}, nil
}

// Synthesize prompts the model with the passages as numbered context
// blocks and returns its answer.
func (l *LLM) Synthesize(ctx context.Context, question string, passages []core.Passage) (string, error) {
	passages = TrimPassages(passages, l.maxTokens)

	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "[%d] (source: %s)\n%s\n\n", p.Rank, p.SourceName, p.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)

	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(b.String()),
	}

	reply, err := l.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("synth: model generate: %w", err)
	}
	answer := strings.TrimSpace(reply.Content)
	if answer == "" {
		return "", fmt.Errorf("synth: model returned an empty answer")
	}
	return answer, nil
}
