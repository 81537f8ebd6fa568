// Package vcf is the vCard side of the parsing capability: it turns item
// text into a vcard.Card and back into canonical text.
package vcf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
)

// DefaultVersion is assigned to cards that do not declare a VERSION.
const DefaultVersion = "4.0"

var (
	ErrEmpty         = errors.New("vcf: empty body")
	ErrMultipleCards = errors.New("vcf: more than one card")
)

// Parse decodes exactly one vCard. A missing VERSION is normalized to
// DefaultVersion so the card can always be serialized again.
func Parse(text string) (vcard.Card, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}

	dec := vcard.NewDecoder(strings.NewReader(text))
	card, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("vcf: %w", err)
	}

	// Anything after the first END:VCARD, another card or junk, is rejected.
	if _, err := dec.Decode(); err == nil {
		return nil, ErrMultipleCards
	} else if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("vcf: trailing data: %w", err)
	}

	if card.Value(vcard.FieldVersion) == "" {
		card.SetValue(vcard.FieldVersion, DefaultVersion)
	}
	return card, nil
}

// Format serializes card canonically: BEGIN, VERSION, the remaining
// properties sorted by name, END. The card itself is not modified.
func Format(card vcard.Card) string {
	if card.Value(vcard.FieldVersion) == "" {
		withVersion := make(vcard.Card, len(card)+1)
		for k, fields := range card {
			withVersion[k] = fields
		}
		withVersion.SetValue(vcard.FieldVersion, DefaultVersion)
		card = withVersion
	}

	var b strings.Builder
	// The encoder only fails on a missing VERSION, handled above.
	_ = vcard.NewEncoder(&b).Encode(card)
	return b.String()
}

// UID returns the card's UID property, or "" when unset.
func UID(card vcard.Card) string {
	return strings.TrimSpace(card.Value(vcard.FieldUID))
}
