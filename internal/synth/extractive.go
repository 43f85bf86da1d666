package synth

import (
	"context"
	"strings"

	"github.com/documind-ai/documind-go/internal/core"
)

// Extractive is a model-free Synthesizer: it pulls the sentences of the
// best-ranked passage that share words with the question and joins them
// into an answer, citing the passage's source. Useful for deployments
// without a chat model and as the deterministic baseline in tests.
type Extractive struct {
	// MaxSentences caps the number of extracted sentences (default 3).
	MaxSentences int
}

var _ Synthesizer = (*Extractive)(nil)

// Synthesize builds an extractive answer from the top passage.
func (e *Extractive) Synthesize(_ context.Context, question string, passages []core.Passage) (string, error) {
	if len(passages) == 0 {
		return NoAnswer, nil
	}
	maxSentences := e.MaxSentences
	if maxSentences <= 0 {
		maxSentences = 3
	}

	best := passages[0]
	sentences := strings.Split(best.Text, ".")

	questionWords := wordSet(question)
	var relevant []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if overlap(questionWords, wordSet(sentence)) >= 1 {
			relevant = append(relevant, sentence)
		}
	}

	var answer string
	if len(relevant) > 0 {
		if len(relevant) > maxSentences {
			relevant = relevant[:maxSentences]
		}
		answer = strings.Join(relevant, ". ") + "."
	} else {
		// Nothing overlaps: fall back to the opening of the best passage.
		var opening []string
		for _, sentence := range sentences {
			if sentence = strings.TrimSpace(sentence); sentence != "" {
				opening = append(opening, sentence)
			}
			if len(opening) == 2 {
				break
			}
		}
		answer = strings.Join(opening, ". ")
		if answer != "" && !strings.HasSuffix(answer, ".") {
			answer += "."
		}
	}

	return answer + "\n\n(Source: " + best.SourceName + ")", nil
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
