package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"famledger/internal/validator"
)

var (
	errNoJSONObject = errors.New("no JSON object in model response")

	// Greedy: spans from the first '{' to the last '}' so nested braces survive.
	braceObject = regexp.MustCompile(`(?s)\{.*\}`)

	amountNoise = strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "")
)

// payload is the strict schema expected from the model.
type payload struct {
	TransactionType string       `json:"transaction_type" validate:"required"`
	Amount          *modelAmount `json:"amount" validate:"required"`
	Category        string       `json:"category" validate:"required"`
	Description     string       `json:"description" validate:"required"`
}

// modelAmount accepts the amount as a JSON number or a string. A value that
// cannot be read as a decimal is recorded as invalid rather than failing the
// whole decode, so reconciliation can still fall back to the text.
type modelAmount struct {
	value decimal.Decimal
	valid bool
}

func (a *modelAmount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = amountNoise.Replace(strings.TrimSpace(s))
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		a.valid = false
		return nil
	}
	a.value = d
	a.valid = true
	return nil
}

// decodePayload applies the two decode tiers: the whole text as JSON, then
// the first brace-delimited substring. Required fields are enforced after
// trimming.
func decodePayload(raw string) (*payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		match := braceObject.FindString(raw)
		if match == "" {
			return nil, errNoJSONObject
		}
		p = payload{}
		if err := json.Unmarshal([]byte(match), &p); err != nil {
			return nil, err
		}
	}

	p.TransactionType = strings.TrimSpace(p.TransactionType)
	p.Category = strings.TrimSpace(p.Category)
	p.Description = strings.TrimSpace(p.Description)

	if err := validator.Struct(p); err != nil {
		return nil, err
	}
	return &p, nil
}
