package utils

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"socialfeed/models"
)

// EncodeCursor serializes a cursor into an opaque URL-safe token. Only finite
// scores have a token.
func EncodeCursor(c models.Cursor) (string, error) {
	if err := ValidateScore("EncodeCursor", c.Score); err != nil {
		return "", err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", NewValidationError("EncodeCursor", err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// ValidateScore rejects NaN and infinite ranking scores.
func ValidateScore(op string, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return NewValidationError(op, fmt.Sprintf("score must be finite, got %v", score))
	}
	return nil
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (models.Cursor, error) {
	var c models.Cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, NewValidationError("DecodeCursor", fmt.Sprintf("malformed cursor: %v", err))
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, NewValidationError("DecodeCursor", fmt.Sprintf("malformed cursor: %v", err))
	}
	return c, nil
}

// CursorAfter reports whether (score, member) sorts strictly after the cursor in
// descending (score, member) order.
func CursorAfter(score float64, member string, c models.Cursor) bool {
	return score < c.Score || (score == c.Score && member < c.MemberID)
}
