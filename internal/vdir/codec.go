package vdir

import (
	"unicode/utf8"

	"vdir/internal/ics"
	"vdir/internal/vcf"
)

// Option tunes how item files are parsed by ListItems, ListAllItems and
// ReadItem.
type Option func(*options)

type options struct {
	ics ics.Options
}

// RequireICalUID makes iCalendar items valid only when all their
// components share a single UID. Off by default.
func RequireICalUID(on bool) Option {
	return func(o *options) {
		o.ics.RequireUID = on
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// decodeItem turns the contents of the file at path into an Item. Failures
// are *Error values of kind ErrInvalidContents, ErrInvalidExtension,
// ErrInvalidIcal or ErrInvalidVcard, reported under op.
func decodeItem(op, path string, contents []byte, o options) (Item, error) {
	if !utf8.Valid(contents) {
		return Item{}, newError(op, ErrInvalidContents, path, nil)
	}
	text := string(contents)

	kind, ok := kindOf(extension(path))
	if !ok {
		return Item{}, newError(op, ErrInvalidExtension, path, nil)
	}

	if kind == KindVcard {
		card, err := vcf.Parse(text)
		if err != nil {
			return Item{}, newError(op, ErrInvalidVcard, path, err)
		}
		return Item{Path: path, Kind: KindVcard, Vcard: card}, nil
	}

	cal, err := ics.Parse(text, o.ics)
	if err != nil {
		return Item{}, newError(op, ErrInvalidIcal, path, err)
	}
	return Item{Path: path, Kind: KindIcal, Ical: cal}, nil
}

const opParseItem = "parse item"

// ParseItem decodes contents as the item stored at path, choosing the
// parser from the path extension.
func ParseItem(path string, contents []byte, opts ...Option) (Item, error) {
	if extension(path) == "" {
		return Item{}, newError(opParseItem, ErrMissingExtension, path, nil)
	}
	return decodeItem(opParseItem, path, contents, buildOptions(opts))
}
