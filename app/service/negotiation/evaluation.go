package negotiation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"negosim/app/client/oracle"

	_ "embed"
)

//go:embed evaluation_prompt.txt
var evaluationPromptTemplate string

// Evaluate produces the final grading report for a finished session.
// Oracle failures degrade to an error string in the report body; only
// an unknown session id is a hard error.
func (s *Service) Evaluate(ctx context.Context, sessionID string, finalTerms EvaluationTerms) (string, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	prompt := renderTemplate(evaluationPromptTemplate, map[string]any{
		"price_opening":        formatPrice(sess.Params.Price.Opening),
		"price_target":         formatPrice(sess.Params.Price.Target),
		"price_reservation":    formatPrice(sess.Params.Price.Reservation),
		"delivery_opening":     sess.Params.Delivery.Opening,
		"delivery_target":      sess.Params.Delivery.Target,
		"delivery_reservation": sess.Params.Delivery.Reservation,
		"conversation_log":     formatHistory(sess.History, strings.ToUpper),
		"final_price":          formatFinalPrice(finalTerms.Price),
		"final_delivery":       formatFinalInt(finalTerms.Delivery),
		"final_volume":         formatFinalInt(finalTerms.Volume),
	})

	report, err := s.evaluateClient.Complete(ctx, oracle.Request{
		Prompt:      prompt,
		Temperature: 0.5,
		MaxTokens:   1500,
	})
	if err != nil {
		slog.Error("Evaluation oracle failed", "session_id", sessionID, "error", err, "telegram", true)
		return "Error generating evaluation: " + err.Error(), nil
	}

	return report, nil
}

func formatFinalPrice(v *float64) string {
	if v == nil {
		return "N/A"
	}

	return formatPrice(*v)
}

func formatFinalInt(v *int) string {
	if v == nil {
		return "N/A"
	}

	return strconv.Itoa(*v)
}
