package negotiation

import (
	"strings"

	"negosim/app/service/session"
	"negosim/app/service/terms"
)

// A session with no exchange cannot be "done".
const minReadinessHistory = 2

var strongSignals = []string{
	"i accept", "we accept", "accepted", "i agree", "we agree", "agreed",
	"deal confirmed", "confirm deal", "confirm the deal",
	"sounds good", "works for me", "perfect", "it's a deal", "its a deal",
	"let's do it", "lets do it", "i can do that", "that works",
	"done", "fine", "ok deal", "okay deal", "deal",
}

var negationTokens = []string{"don't", "dont", "cannot", "can't", "won't", "not", "unable"}

// Readiness decides whether an enforceable agreement now exists: the
// latest user message must carry a non-negated agreement signal, and
// both price and delivery must be resolvable from the fresh terms plus
// a backward scan of counterpart messages. Ambiguous phrasing cancels
// readiness; false negatives are preferred over false positives.
func Readiness(history []session.Message, latest terms.Terms) (bool, *ClosingTerms) {
	if len(history) < minReadinessHistory {
		return false, nil
	}

	last := history[len(history)-1]
	if last.Role != session.RoleUser {
		return false, nil
	}

	if !hasAgreementSignal(last.Content) {
		return false, nil
	}

	price := latest.Price
	delivery := latest.Delivery

	for i := len(history) - 2; i >= 0; i-- {
		if price != nil && delivery != nil {
			break
		}

		msg := history[i]
		if msg.Role != session.RoleAssistant {
			continue
		}

		if price == nil {
			price = terms.ParsePrice(msg.Content)
		}
		if delivery == nil {
			delivery = terms.ParseDelivery(msg.Content)
		}
	}

	if price == nil || delivery == nil {
		return false, nil
	}

	return true, &ClosingTerms{
		Price:    *price,
		Delivery: *delivery,
		Volume:   latest.Volume,
	}
}

func hasAgreementSignal(content string) bool {
	lower := strings.ToLower(content)

	signal := false
	for _, phrase := range strongSignals {
		if strings.Contains(lower, phrase) {
			signal = true
			break
		}
	}

	if !signal {
		return false
	}

	// An explicit confirmation token overrides the negation check.
	if strings.Contains(lower, "confirmed") || strings.Contains(lower, "agreed") {
		return true
	}

	for _, neg := range negationTokens {
		if strings.Contains(lower, neg) {
			return false
		}
	}

	return true
}
