package negotiation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"negosim/app/service/deal"
	"negosim/app/service/session"
	"negosim/app/service/terms"

	"github.com/elliotchance/pie/v2"
)

const (
	defaultAnchorPrice = 400.0

	// Relative gap between the counterpart's price and the user's offer
	// selects the concession tier: token move on lowballs, the biggest
	// visible move when nearly converged.
	lowballGap = 0.20
	closeGap   = 0.10

	lowballFactor  = 0.995
	standardFactor = 0.985
	closeFactor    = 0.975
)

var openingPriceRe = regexp.MustCompile(`Opening Price: \$([0-9.]+)`)

var agreementWords = []string{"deal", "agree", "accept", "done", "sounds good", "okay"}

// anchor is the counterpart's current position. The price is never
// absent: history, then the parameters text, then a fixed default.
type anchor struct {
	price    float64
	delivery *int
	// resolved is false when the price fell through to the default.
	resolved bool
}

type ruleContext struct {
	userInput string
	history   []session.Message
	extracted terms.Terms
	anchor    anchor
}

type rule struct {
	name string
	when func(rc *ruleContext) bool
	emit func(rc *ruleContext) Guidance
}

// The decision table. First matching rule wins; order is part of the
// contract (a small-volume ask outranks the typo check, and so on).
var rules = []rule{
	{
		name: "agreement-missing-delivery",
		when: func(rc *ruleContext) bool {
			return isAgreement(rc.userInput) && rc.extracted.Delivery == nil && rc.anchor.delivery == nil
		},
		emit: func(rc *ruleContext) Guidance {
			return Guidance{
				Instruction: "User agreed, but DELIVERY DATE is missing. Do NOT confirm. " +
					"Say: 'We have a price, but we need to agree on delivery time.'",
			}
		},
	},
	{
		name: "agreement-missing-price",
		when: func(rc *ruleContext) bool {
			return isAgreement(rc.userInput) && rc.extracted.Price == nil && !rc.anchor.resolved
		},
		emit: func(rc *ruleContext) Guidance {
			return Guidance{
				Instruction: "User agreed, but PRICE is unclear. Do NOT confirm. Ask to confirm price.",
			}
		},
	},
	{
		name: "small-volume-penalty",
		when: func(rc *ruleContext) bool {
			return rc.extracted.Volume != nil && *rc.extracted.Volume < deal.StandardVolume
		},
		emit: func(rc *ruleContext) Guidance {
			return Guidance{
				Instruction: fmt.Sprintf(
					"User asked for %d units. Small orders cost MORE. Refuse discount. Hold firm at $%s.",
					*rc.extracted.Volume, formatPrice(rc.anchor.price)),
				Offer: terms.Float(rc.anchor.price),
			}
		},
	},
	{
		name: "typo-check",
		when: func(rc *ruleContext) bool {
			return rc.extracted.Price != nil && *rc.extracted.Price > rc.anchor.price
		},
		emit: func(rc *ruleContext) Guidance {
			return Guidance{
				Instruction: fmt.Sprintf(
					"User offered $%s, which is HIGHER than your price ($%s). Ask if that is a typo. Do not change your price.",
					formatPrice(*rc.extracted.Price), formatPrice(rc.anchor.price)),
			}
		},
	},
	{
		name: "stalemate",
		when: func(rc *ruleContext) bool {
			prev, ok := previousUserMessage(rc.history)
			if !ok {
				return false
			}

			if normalize(rc.userInput) == normalize(prev) {
				return true
			}

			prevPrice := terms.ParsePrice(prev)
			return rc.extracted.Price != nil && prevPrice != nil &&
				math.Abs(*rc.extracted.Price-*prevPrice) < 0.1
		},
		emit: func(rc *ruleContext) Guidance {
			return Guidance{
				Instruction: fmt.Sprintf(
					"User repeated their offer. You MUST hold firm at exactly $%s. Say: 'As I stated, I cannot accept that.'",
					formatPrice(rc.anchor.price)),
				Offer: terms.Float(rc.anchor.price),
			}
		},
	},
	{
		name: "concession",
		when: func(rc *ruleContext) bool {
			return rc.extracted.Price != nil
		},
		emit: func(rc *ruleContext) Guidance {
			userPrice := *rc.extracted.Price
			gap := (rc.anchor.price - userPrice) / rc.anchor.price

			switch {
			case gap > lowballGap:
				next := round2(rc.anchor.price * lowballFactor)
				return Guidance{
					Instruction: fmt.Sprintf(
						"User is lowballing ($%s). You MUST offer exactly $%s. Say: 'That is far too low.'",
						formatPrice(userPrice), formatPrice(next)),
					Offer: terms.Float(next),
				}
			case gap < closeGap:
				next := round2(rc.anchor.price * closeFactor)
				return Guidance{
					Instruction: fmt.Sprintf(
						"We are getting close. Offer exactly $%s. Say: 'I can make a significant move.'",
						formatPrice(next)),
					Offer: terms.Float(next),
				}
			default:
				next := round2(rc.anchor.price * standardFactor)
				return Guidance{
					Instruction: fmt.Sprintf("Standard negotiation. Offer exactly $%s.", formatPrice(next)),
					Offer:       terms.Float(next),
				}
			}
		},
	},
	{
		name: "hold-steer-delivery",
		when: func(rc *ruleContext) bool {
			return true
		},
		emit: func(rc *ruleContext) Guidance {
			return Guidance{
				Instruction: fmt.Sprintf("Hold at $%s. Discuss delivery time.", formatPrice(rc.anchor.price)),
				Offer:       terms.Float(rc.anchor.price),
			}
		},
	},
}

// NextMove runs the decision table for a turn the readiness detector
// reported as not ready. history already includes the current user
// message as its last entry.
func NextMove(userInput string, history []session.Message, extracted terms.Terms, paramsText string) Guidance {
	rc := &ruleContext{
		userInput: userInput,
		history:   history,
		extracted: extracted,
		anchor:    resolveAnchor(history, paramsText),
	}

	for _, r := range rules {
		if r.when(rc) {
			guidance := r.emit(rc)
			guidance.Rule = r.name
			return guidance
		}
	}

	// Unreachable: the last rule always matches.
	return Guidance{Rule: "fallback", Instruction: fallbackInstruction}
}

// ConfirmDeal is the rule-1 guidance emitted by the caller when the
// readiness detector fired; it supersedes the whole table.
func ConfirmDeal(closing ClosingTerms) Guidance {
	return Guidance{
		Rule: "confirm-deal",
		Instruction: fmt.Sprintf(
			"DEAL DETECTED. Confirm these exact terms and stop negotiating: price $%s, delivery %d days.",
			formatPrice(closing.Price), closing.Delivery),
		Offer: terms.Float(closing.Price),
	}
}

const fallbackInstruction = "Negotiate professionally."

func resolveAnchor(history []session.Message, paramsText string) anchor {
	var price *float64
	var delivery *int

	for _, msg := range pie.Reverse(history) {
		if msg.Role != session.RoleAssistant {
			continue
		}

		p := terms.ParsePrice(msg.Content)
		d := terms.ParseDelivery(msg.Content)

		if p != nil {
			price = p
		}
		if d != nil {
			delivery = d
		}

		// The scan settles on the most recent counterpart message that
		// states both terms; partial mentions keep it walking back.
		if p != nil && d != nil {
			break
		}
	}

	if price != nil {
		return anchor{price: *price, delivery: delivery, resolved: true}
	}

	if m := openingPriceRe.FindStringSubmatch(paramsText); m != nil {
		if opening, err := strconv.ParseFloat(m[1], 64); err == nil {
			return anchor{price: opening, delivery: delivery, resolved: true}
		}
	}

	return anchor{price: defaultAnchorPrice, delivery: delivery}
}

func previousUserMessage(history []session.Message) (string, bool) {
	// Skip the last entry: that is the current user message.
	for i := len(history) - 2; i >= 0; i-- {
		if history[i].Role == session.RoleUser {
			return history[i].Content, true
		}
	}

	return "", false
}

func isAgreement(userInput string) bool {
	lower := strings.ToLower(userInput)

	for _, word := range agreementWords {
		if strings.Contains(lower, word) {
			return true
		}
	}

	return false
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
