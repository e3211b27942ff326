package terms

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"negosim/app/client/oracle"

	_ "embed"
)

//go:embed extract_prompt.txt
var extractPromptTemplate string

// OracleExtractor delegates extraction to a JSON-constrained completion.
// Any oracle or parse failure degrades to all-absent terms, never an
// error: downstream guidance must always have a valid result to work on.
type OracleExtractor struct {
	client *oracle.Client
}

func NewOracleExtractor(client *oracle.Client) *OracleExtractor {
	return &OracleExtractor{client: client}
}

func (e *OracleExtractor) Extract(ctx context.Context, text string) Terms {
	prompt := strings.ReplaceAll(extractPromptTemplate, "{user_input}", text)

	result, err := e.client.Complete(ctx, oracle.Request{
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   200,
		JSON:        true,
	})
	if err != nil {
		slog.Warn("Term extraction oracle failed, falling back to empty terms", "error", err)
		return Terms{}
	}

	var extracted Terms
	if err = json.Unmarshal([]byte(result), &extracted); err != nil {
		slog.Warn("Term extraction returned malformed output", "output", result, "error", err)
		return Terms{}
	}

	return extracted
}
