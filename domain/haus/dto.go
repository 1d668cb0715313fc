package haus

import (
	"time"
)

// AdresseDTO is the address part of a create request
type AdresseDTO struct {
	Strasse    string `json:"strasse" validate:"required,max=255"`
	Hausnummer string `json:"hausnummer,omitempty" validate:"max=50"`
	Plz        string `json:"plz" validate:"required,max=10"`
}

// PersonDTO is a person of a create request
type PersonDTO struct {
	Vorname     string `json:"vorname" validate:"max=255"`
	Nachname    string `json:"nachname" validate:"max=255"`
	Eigentuemer bool   `json:"eigentuemer"`
}

// HausUpdateDTO holds the scalar fields of a house. It is the body of PUT /rest/:id.
// Features must be unique once uppercased.
type HausUpdateDTO struct {
	Art          *string  `json:"art,omitempty" validate:"omitempty,oneof=BUNGALOW MEHRFAMILIENHAUS REIHENHAUS VILLA"`
	Preis        *float64 `json:"preis" validate:"required,gt=0"`
	Hausflaeche  *int     `json:"hausflaeche" validate:"required,gt=0"`
	Verkaeuflich *bool    `json:"verkaeuflich" validate:"required"`
	Baudatum     *string  `json:"baudatum,omitempty" validate:"omitempty,iso8601"`
	Katalog      *string  `json:"katalog,omitempty" validate:"omitempty,url"`
	Features     []string `json:"features,omitempty" validate:"omitempty,uniquefeatures"`
}

// HausDTO is the body of POST /rest
type HausDTO struct {
	HausUpdateDTO

	Adresse  *AdresseDTO `json:"adresse" validate:"required"`
	Personen []PersonDTO `json:"personen,omitempty" validate:"omitempty,dive"`
}

// HausPatch carries the fields an update may change. Nil fields keep their stored value.
type HausPatch struct {
	Art          *Art
	Preis        *float64
	Hausflaeche  *int
	Verkaeuflich *bool
	Baudatum     *time.Time
	Katalog      *string
	Features     Features
}

// ToHaus assembles the aggregate for a create
func (d *HausDTO) ToHaus() *Haus {
	h := &Haus{}
	d.HausUpdateDTO.ToPatch().apply(h)

	if d.Adresse != nil {
		h.Adresse = &Adresse{
			Strasse:    d.Adresse.Strasse,
			Hausnummer: d.Adresse.Hausnummer,
			Plz:        d.Adresse.Plz,
		}
	}
	for _, p := range d.Personen {
		h.Personen = append(h.Personen, &Person{
			Vorname:     p.Vorname,
			Nachname:    p.Nachname,
			Eigentuemer: p.Eigentuemer,
		})
	}
	return h
}

// ToPatch converts the validated update body
func (d *HausUpdateDTO) ToPatch() *HausPatch {
	p := &HausPatch{
		Preis:        d.Preis,
		Hausflaeche:  d.Hausflaeche,
		Verkaeuflich: d.Verkaeuflich,
		Katalog:      d.Katalog,
	}
	if d.Art != nil {
		art := Art(*d.Art)
		p.Art = &art
	}
	if d.Baudatum != nil {
		if t, ok := parseISODate(*d.Baudatum); ok {
			p.Baudatum = &t
		}
	}
	if d.Features != nil {
		p.Features = Features(d.Features)
	}
	return p
}

func (p *HausPatch) apply(h *Haus) {
	if p.Art != nil {
		h.Art = *p.Art
	}
	if p.Preis != nil {
		h.Preis = *p.Preis
	}
	if p.Hausflaeche != nil {
		h.Hausflaeche = *p.Hausflaeche
	}
	if p.Verkaeuflich != nil {
		h.Verkaeuflich = *p.Verkaeuflich
	}
	if p.Baudatum != nil {
		d := *p.Baudatum
		h.Baudatum = &d
	}
	if p.Katalog != nil {
		h.Katalog = *p.Katalog
	}
	if p.Features != nil {
		h.Features = p.Features.Normalize()
	}
}

var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
