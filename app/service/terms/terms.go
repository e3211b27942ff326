package terms

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Terms are the numeric terms found in a single message.
// Nil means the term was absent or too ambiguous to extract.
type Terms struct {
	Price    *float64 `json:"price"`
	Delivery *int     `json:"delivery"`
	Volume   *int     `json:"volume"`
}

// Extractor turns free-text user input into structured terms.
type Extractor interface {
	Extract(ctx context.Context, text string) Terms
}

var (
	priceRe       = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	deliveryRe    = regexp.MustCompile(`([0-9]+)\s*days?`)
	volumeKRe     = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*k\b`)
	volumeUnitsRe = regexp.MustCompile(`([0-9]+(?:,[0-9]{3})*)\s*(?:units?|pcs|chips)`)
)

// ParsePrice returns the last dollar amount mentioned in text, if any.
// It applies no offer/rejection filtering; use it on counterpart text.
func ParsePrice(text string) *float64 {
	matches := priceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	raw := strings.ReplaceAll(matches[len(matches)-1][1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	return &value
}

// ParseDelivery returns the last day-count mentioned in text, if any.
func ParseDelivery(text string) *int {
	matches := deliveryRe.FindAllStringSubmatch(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return nil
	}

	value, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return nil
	}

	return &value
}

// ParseVolume returns a unit count mentioned in text, if any.
// "3k" style shorthand takes precedence over explicit unit counts.
func ParseVolume(text string) *int {
	lower := strings.ToLower(text)

	if m := volumeKRe.FindStringSubmatch(lower); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			result := int(value * 1000)
			return &result
		}
	}

	if m := volumeUnitsRe.FindStringSubmatch(lower); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.Atoi(raw)
		if err == nil {
			return &value
		}
	}

	return nil
}

func Float(v float64) *float64 {
	return &v
}

func Int(v int) *int {
	return &v
}
