// Package synth turns retrieved passages into an answer. Two
// implementations exist: Extractive, which stitches an answer out of the
// passages themselves and needs no model, and LLM, which prompts a chat
// model through eino with the passages as grounding context. Both are
// pure functions of their inputs plus the model; neither touches the
// document store or the index.
package synth

import (
	"context"

	"github.com/documind-ai/documind-go/internal/core"
)

// NoAnswer is the fixed response when retrieval produced no passages.
// Callers short-circuit to it without invoking a Synthesizer.
const NoAnswer = "No relevant information found in the documents."

// Synthesizer produces an answer to a question from ranked passages.
// Implementations must be safe for concurrent use.
type Synthesizer interface {
	// Synthesize answers the question using only the given passages.
	// passages is never empty; the no-passages case is handled by the
	// caller with NoAnswer.
	Synthesize(ctx context.Context, question string, passages []core.Passage) (string, error)
}

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. Multiple model backends with different tokenizers share
	// this heuristic.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default context budget for passage
	// text handed to a model. Small enough for 8k-context models with
	// room left for the answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimPassages drops the lowest-ranked passages until the estimated token
// total fits within maxTokens. The first passage is always kept, even
// when it alone exceeds the budget: an answer grounded in one oversized
// passage beats no answer.
func TrimPassages(passages []core.Passage, maxTokens int) []core.Passage {
	if len(passages) == 0 {
		return passages
	}
	total := 0
	for i, p := range passages {
		total += Estimate(p.Text) + Estimate(p.SourceName) + 4
		if total > maxTokens && i > 0 {
			return passages[:i]
		}
	}
	return passages
}
