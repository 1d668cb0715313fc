package haus

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Art is the category of a house
type Art string

const (
	ArtBungalow         Art = "BUNGALOW"
	ArtMehrfamilienhaus Art = "MEHRFAMILIENHAUS"
	ArtReihenhaus       Art = "REIHENHAUS"
	ArtVilla            Art = "VILLA"
)

// Arten lists every valid Art in declaration order
var Arten = []Art{ArtBungalow, ArtMehrfamilienhaus, ArtReihenhaus, ArtVilla}

// Valid reports whether a is one of the declared categories
func (a Art) Valid() bool {
	for _, known := range Arten {
		if a == known {
			return true
		}
	}
	return false
}

// Features is a set of uppercase feature tags stored as a comma separated column
type Features []string

// Normalize uppercases every tag and turns nil into an empty list
func (f Features) Normalize() Features {
	out := make(Features, 0, len(f))
	for _, tag := range f {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Contains reports whether tag is present, ignoring case
func (f Features) Contains(tag string) bool {
	for _, t := range f {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer
func (f Features) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return strings.Join(f, ","), nil
}

// Scan implements sql.Scanner
func (f *Features) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*f = Features{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("features: cannot scan %T", src)
	}

	if s == "" {
		*f = Features{}
		return nil
	}
	*f = Features(strings.Split(s, ","))
	return nil
}

// Haus represents a house in the haus table
type Haus struct {
	bun.BaseModel `bun:"table:haus,alias:haus"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Version      int        `bun:"version,notnull" json:"version"`
	Hausflaeche  int        `bun:"hausflaeche,notnull" json:"hausflaeche"`
	Art          Art        `bun:"art,nullzero" json:"art,omitempty"`
	Preis        float64    `bun:"preis,type:numeric(10,2),notnull" json:"preis"`
	Verkaeuflich bool       `bun:"verkaeuflich,notnull" json:"verkaeuflich"`
	Baudatum     *time.Time `bun:"baudatum,type:date" json:"baudatum,omitempty"`
	Katalog      string     `bun:"katalog,nullzero" json:"katalog,omitempty"`
	Features     Features   `bun:"features" json:"features"`
	Erzeugt      time.Time  `bun:"erzeugt,nullzero,notnull,default:current_timestamp" json:"erzeugt"`
	Aktualisiert time.Time  `bun:"aktualisiert,nullzero,notnull,default:current_timestamp" json:"aktualisiert"`

	// Relations
	Adresse  *Adresse  `bun:"rel:has-one,join:id=haus_id" json:"adresse,omitempty"`
	Personen []*Person `bun:"rel:has-many,join:id=haus_id" json:"personen,omitempty"`
}

// Adresse is the address of exactly one house
type Adresse struct {
	bun.BaseModel `bun:"table:adresse,alias:adresse"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	Strasse    string `bun:"strasse,notnull" json:"strasse"`
	Hausnummer string `bun:"hausnummer,nullzero" json:"hausnummer,omitempty"`
	Plz        string `bun:"plz,notnull" json:"plz"`
	HausID     int64  `bun:"haus_id,notnull" json:"-"`

	Haus *Haus `bun:"rel:belongs-to,join:haus_id=id" json:"-"`
}

// Person is a resident or owner linked to a house
type Person struct {
	bun.BaseModel `bun:"table:person,alias:person"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Vorname     string `bun:"vorname,notnull" json:"vorname"`
	Nachname    string `bun:"nachname,notnull" json:"nachname"`
	Eigentuemer bool   `bun:"eigentuemer,notnull" json:"eigentuemer"`
	HausID      int64  `bun:"haus_id,notnull" json:"-"`

	Haus *Haus `bun:"rel:belongs-to,join:haus_id=id" json:"-"`
}

// normalize prepares a house that was read from the store
func (h *Haus) normalize() {
	if h.Features == nil {
		h.Features = Features{}
	}
}
