package terms

import (
	"context"
	"regexp"
	"strings"
)

// clauseRe splits a message into clauses on punctuation followed by
// whitespace or end of text, so "$1,000" and "$45.50" stay intact.
var clauseRe = regexp.MustCompile(`[.,;?!](?:\s+|$)`)

var negationTokens = []string{"don't", "dont", "cannot", "can't", "won't", "not", "unable"}

var rangeMarkers = []string{"between", " to ", "-"}

// PatternExtractor extracts terms with clause-scoped pattern rules.
// A clause that rejects a number ("I cannot do $50") contributes no
// offer; a clause stating a range yields the bound most favorable to
// the buyer.
type PatternExtractor struct{}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

func (e *PatternExtractor) Extract(_ context.Context, text string) Terms {
	var result Terms

	for _, clause := range clauseRe.Split(text, -1) {
		if strings.TrimSpace(clause) == "" {
			continue
		}

		if isNegated(clause) {
			continue
		}

		if price := clausePrice(clause); price != nil {
			result.Price = price
		}
		if delivery := ParseDelivery(clause); delivery != nil {
			result.Delivery = delivery
		}
		if volume := ParseVolume(clause); volume != nil {
			result.Volume = volume
		}
	}

	return result
}

func isNegated(clause string) bool {
	lower := strings.ToLower(clause)

	for _, token := range negationTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}

	return false
}

func clausePrice(clause string) *float64 {
	matches := priceRe.FindAllString(clause, -1)
	if len(matches) == 0 {
		return nil
	}

	if len(matches) >= 2 && hasRangeMarker(clause) {
		lowest := ParsePrice(matches[0])
		for _, m := range matches[1:] {
			if price := ParsePrice(m); price != nil && (lowest == nil || *price < *lowest) {
				lowest = price
			}
		}

		return lowest
	}

	return ParsePrice(matches[len(matches)-1])
}

func hasRangeMarker(clause string) bool {
	lower := strings.ToLower(clause)

	for _, marker := range rangeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}
