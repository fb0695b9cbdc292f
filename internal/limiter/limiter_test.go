package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"graphreason/internal/config"
)

func TestCanAddThoughtRespectsMax(t *testing.T) {
	l := New(config.ResourceLimits{MaxThoughts: 2})
	assert.True(t, l.CanAddThought())
	l.RecordThoughtAdded()
	assert.True(t, l.CanAddThought())
	l.RecordThoughtAdded()
	assert.False(t, l.CanAddThought())
}

func TestBudgetExhausted(t *testing.T) {
	max := 250
	l := New(config.ResourceLimits{MaxThoughts: 100})
	assert.False(t, l.BudgetExhausted(&max))
	l.RecordTokens(300)
	assert.True(t, l.BudgetExhausted(&max))
	assert.False(t, l.BudgetExhausted(nil))
}

func TestExpansionsExhausted(t *testing.T) {
	l := New(config.ResourceLimits{MaxThoughts: 100})
	for i := 0; i < 5; i++ {
		l.RecordExpansion()
	}
	assert.True(t, l.ExpansionsExhausted(5))
	assert.False(t, l.ExpansionsExhausted(6))
}

func TestRecordThoughtRemovedNeverGoesNegative(t *testing.T) {
	l := New(config.ResourceLimits{MaxThoughts: 10})
	l.RecordThoughtRemoved()
	assert.Equal(t, 0, l.ThoughtCount())
}
