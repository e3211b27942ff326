package deal

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrdering(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := Generate(fmt.Sprintf("student-%d", i))

		assert.Greater(t, p.Price.Opening, p.Price.Target)
		assert.Greater(t, p.Price.Target, p.Price.Reservation)

		assert.Greater(t, p.Delivery.Opening, p.Delivery.Target)
		assert.Greater(t, p.Delivery.Target, p.Delivery.Reservation)
	}
}

func TestGenerateBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := Generate(fmt.Sprintf("seed-%d", i))

		assert.GreaterOrEqual(t, p.Price.Opening, 300.0)
		assert.LessOrEqual(t, p.Price.Opening, 500.0)

		assert.GreaterOrEqual(t, p.Delivery.Opening, 25)
		assert.LessOrEqual(t, p.Delivery.Opening, 45)

		assert.Equal(t, StandardVolume, p.Volume.Standard)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first := Generate("student-42")
	second := Generate("student-42")

	require.Equal(t, first, second)
}

func TestFormat(t *testing.T) {
	p := Generate("student-42")
	text := p.Format()

	assert.Contains(t, text, "--- NEGOTIATION DATA ---")
	assert.Contains(t, text, fmt.Sprintf("Opening Price: $%s", formatPrice(p.Price.Opening)))
	assert.Contains(t, text, "Standard Volume: 1000 units")
	assert.Contains(t, text, fmt.Sprintf("Opening Delivery: %d days", p.Delivery.Opening))
	assert.False(t, strings.Contains(text, "%"))
}
