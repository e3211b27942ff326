package negotiation

import "negosim/app/service/terms"

// Guidance is the per-turn command injected into the reply prompt.
// It pins the exact numeric move so the oracle cannot invent its own.
type Guidance struct {
	Rule        string
	Instruction string
	// Offer is the exact price the counterpart must state, when the
	// rule mandates one.
	Offer *float64
}

// ClosingTerms are the resolved terms of a detected agreement.
type ClosingTerms struct {
	Price    float64 `json:"price"`
	Delivery int     `json:"delivery"`
	Volume   *int    `json:"volume,omitempty"`
}

// TurnResult is what one chat turn produces for the API layer.
type TurnResult struct {
	Reply     string
	DealReady bool
	Terms     *ClosingTerms
}

// EvaluationTerms are the final terms the operator submits for grading.
type EvaluationTerms = terms.Terms
