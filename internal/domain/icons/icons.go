// Package icons maps discipline names to display emoji.
package icons

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fallback is shown for disciplines no rule matches.
const Fallback = "🏆"

// ErrInvalidMap is returned when a document is not a usable icon map.
var ErrInvalidMap = errors.New("invalid icon map")

// Rule assigns Emoji to every discipline containing Trigger.
type Rule struct {
	Trigger string `json:"Trigger" validate:"required"`
	Emoji   string `json:"Emoji" validate:"required"`
}

// Map is an ordered rule list; earlier rules win.
type Map []Rule

var validate = validator.New()

// Decode parses and validates an icon map document.
func Decode(data []byte) (Map, error) {
	var m Map
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: document is not an array", ErrInvalidMap)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every rule has a trigger and an emoji.
func Validate(m Map) error {
	for i := range m {
		if err := validate.Struct(m[i]); err != nil {
			return fmt.Errorf("%w: rule %d: %v", ErrInvalidMap, i, err)
		}
	}
	return nil
}

// Lookup returns the emoji of the first rule whose trigger occurs in
// discipline, ignoring case, or Fallback.
func (m Map) Lookup(discipline string) string {
	d := strings.ToLower(discipline)
	for _, r := range m {
		if r.Trigger != "" && strings.Contains(d, strings.ToLower(r.Trigger)) {
			return r.Emoji
		}
	}
	return Fallback
}
