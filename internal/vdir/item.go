package vdir

import (
	"encoding/hex"
	"path/filepath"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"vdir/internal/ics"
	"vdir/internal/vcf"
)

// Kind tells which payload an Item carries.
type Kind uint8

const (
	KindIcal Kind = iota + 1
	KindVcard
)

// Extension returns the file extension items of this kind use.
func (k Kind) Extension() string {
	switch k {
	case KindIcal:
		return IcsExt
	case KindVcard:
		return VcfExt
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindIcal:
		return "ical"
	case KindVcard:
		return "vcard"
	default:
		return "unknown"
	}
}

// kindOf maps a file extension to an item kind.
func kindOf(ext string) (Kind, bool) {
	switch ext {
	case IcsExt:
		return KindIcal, true
	case VcfExt:
		return KindVcard, true
	default:
		return 0, false
	}
}

// Item is one calendar object or contact stored as a single file.
// Exactly one of Ical and Vcard is set, matching Kind, and the Path
// extension always agrees with Kind. Items are identified by Path.
type Item struct {
	Path  string
	Kind  Kind
	Ical  *ical.Calendar
	Vcard vcard.Card
}

// NewIcalItem returns an iCalendar item with a random file name inside c.
// Nothing is written on disk.
func NewIcalItem(c Collection, cal *ical.Calendar) Item {
	return Item{Path: newItemPath(c, KindIcal), Kind: KindIcal, Ical: cal}
}

// NewVcardItem returns a vCard item with a random file name inside c.
// Nothing is written on disk.
func NewVcardItem(c Collection, card vcard.Card) Item {
	return Item{Path: newItemPath(c, KindVcard), Kind: KindVcard, Vcard: card}
}

func newItemPath(c Collection, k Kind) string {
	return filepath.Join(c.Path, uuid.NewString()+"."+k.Extension())
}

// Extension returns the item's file extension.
func (it Item) Extension() string {
	return it.Kind.Extension()
}

// String returns the canonical serialization of the item's payload.
func (it Item) String() string {
	switch it.Kind {
	case KindIcal:
		if it.Ical == nil {
			return ""
		}
		return ics.Format(it.Ical)
	case KindVcard:
		return vcf.Format(it.Vcard)
	default:
		return ""
	}
}

// ETag is a content digest of the serialized item, stable across
// listings as long as the item does not change.
func (it Item) ETag() string {
	sum := blake3.Sum256([]byte(it.String()))
	return hex.EncodeToString(sum[:])
}

// extension returns the extension of path without its dot. Dot files
// such as ".ics" have no extension.
func extension(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.TrimPrefix(ext, ".")
}

// tempPath returns the staging path of path: its extension replaced by
// TmpExt, or TmpExt appended when it has none.
func tempPath(path string) string {
	if ext := extension(path); ext != "" {
		return strings.TrimSuffix(path, ext) + TmpExt
	}
	return path + "." + TmpExt
}
