package handlers

import (
	"context"
	"fmt"

	"graphreason/internal/contracts"
)

// demoGenerator is the built-in Generator[string] that got-search always
// uses; no caller-supplied reasoning backend can be attached. It has no
// equivalent in the teacher (whose LLMClient always calls out to a real
// model); this module has no LLM integration in scope, so got-search needs
// *some* concrete Generator/Evaluator pair to drive the engine end to end,
// and demoGenerator/demoEvaluator exist purely to make the tool runnable
// as a self-contained demonstration rather than as production reasoning.
type demoGenerator struct {
	branching int
}

func (g demoGenerator) Generate(_ context.Context, parent string, sc contracts.SearchContext[string]) ([]contracts.Generated[string], error) {
	n := g.branching
	if n <= 0 {
		n = 2
	}
	out := make([]contracts.Generated[string], n)
	for i := 0; i < n; i++ {
		out[i] = contracts.Generated[string]{
			Content:    fmt.Sprintf("%s -> continuation %d at depth %d", parent, i+1, sc.Depth+1),
			TokensUsed: len(parent) + 10,
		}
	}
	return out, nil
}

// demoEvaluator scores content deterministically from its length so that
// got-search is reproducible across calls with identical input.
type demoEvaluator struct{}

func (demoEvaluator) Evaluate(_ context.Context, content string, _ contracts.SearchContext[string]) (float64, error) {
	return float64(len(content)%100) / 100.0, nil
}
