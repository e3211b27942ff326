package terms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, text string) Terms {
	t.Helper()
	return NewPatternExtractor().Extract(context.Background(), text)
}

func TestExtractRejectionThenOffer(t *testing.T) {
	got := extract(t, "I cannot do $50, how about $45?")

	require.NotNil(t, got.Price)
	assert.Equal(t, 45.0, *got.Price)
}

func TestExtractPureRejection(t *testing.T) {
	got := extract(t, "I cannot do $50.")

	assert.Nil(t, got.Price)
}

func TestExtractFullOffer(t *testing.T) {
	got := extract(t, "How about $45 for 2,000 units with 30 days delivery?")

	require.NotNil(t, got.Price)
	require.NotNil(t, got.Volume)
	require.NotNil(t, got.Delivery)
	assert.Equal(t, 45.0, *got.Price)
	assert.Equal(t, 2000, *got.Volume)
	assert.Equal(t, 30, *got.Delivery)
}

func TestExtractRangeTakesBuyerFavorableBound(t *testing.T) {
	got := extract(t, "I could go between $40 and $45 per unit")

	require.NotNil(t, got.Price)
	assert.Equal(t, 40.0, *got.Price)
}

func TestExtractThousandsShorthand(t *testing.T) {
	got := extract(t, "We'd need 3k at $320")

	require.NotNil(t, got.Volume)
	require.NotNil(t, got.Price)
	assert.Equal(t, 3000, *got.Volume)
	assert.Equal(t, 320.0, *got.Price)
}

func TestExtractEmpty(t *testing.T) {
	got := extract(t, "Tell me more about the warranty")

	assert.Nil(t, got.Price)
	assert.Nil(t, got.Delivery)
	assert.Nil(t, got.Volume)
}

func TestParsePriceTakesLastMention(t *testing.T) {
	price := ParsePrice("I can offer $400, final price $395 with 20 days")

	require.NotNil(t, price)
	assert.Equal(t, 395.0, *price)
}

func TestParsePriceWithThousandsSeparator(t *testing.T) {
	price := ParsePrice("the total would be $1,250.50")

	require.NotNil(t, price)
	assert.Equal(t, 1250.50, *price)
}

func TestParseDelivery(t *testing.T) {
	require.Nil(t, ParseDelivery("no timeline yet"))

	d := ParseDelivery("We ship in 30 days, expedited in 20 days")
	require.NotNil(t, d)
	assert.Equal(t, 20, *d)
}
