package devtools

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Yukasama/haus/domain/haus"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Haeuser []seedHaus `yaml:"haeuser"`
}

type seedHaus struct {
	ID           int64    `yaml:"id"`
	Version      int      `yaml:"version"`
	Hausflaeche  int      `yaml:"hausflaeche"`
	Art          string   `yaml:"art"`
	Preis        float64  `yaml:"preis"`
	Verkaeuflich bool     `yaml:"verkaeuflich"`
	Baudatum     string   `yaml:"baudatum"`
	Katalog      string   `yaml:"katalog"`
	Features     []string `yaml:"features"`
	Adresse      struct {
		Strasse    string `yaml:"strasse"`
		Hausnummer string `yaml:"hausnummer"`
		Plz        string `yaml:"plz"`
	} `yaml:"adresse"`
	Personen []struct {
		Vorname     string `yaml:"vorname"`
		Nachname    string `yaml:"nachname"`
		Eigentuemer bool   `yaml:"eigentuemer"`
	} `yaml:"personen"`
}

// parseSeed decodes seed data into houses with their address and persons
func parseSeed(data []byte) ([]*haus.Haus, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	now := time.Now()
	out := make([]*haus.Haus, 0, len(f.Haeuser))
	for _, s := range f.Haeuser {
		if s.ID <= 0 {
			return nil, fmt.Errorf("seed haus without id")
		}
		art := haus.Art(s.Art)
		if s.Art != "" && !art.Valid() {
			return nil, fmt.Errorf("seed haus %d: unknown art %q", s.ID, s.Art)
		}

		h := &haus.Haus{
			ID:           s.ID,
			Version:      s.Version,
			Hausflaeche:  s.Hausflaeche,
			Art:          art,
			Preis:        s.Preis,
			Verkaeuflich: s.Verkaeuflich,
			Katalog:      s.Katalog,
			Features:     haus.Features(s.Features).Normalize(),
			Erzeugt:      now,
			Aktualisiert: now,
			Adresse: &haus.Adresse{
				Strasse:    s.Adresse.Strasse,
				Hausnummer: s.Adresse.Hausnummer,
				Plz:        s.Adresse.Plz,
				HausID:     s.ID,
			},
		}
		if s.Baudatum != "" {
			d, err := time.Parse(time.DateOnly, s.Baudatum)
			if err != nil {
				return nil, fmt.Errorf("seed haus %d: %w", s.ID, err)
			}
			h.Baudatum = &d
		}
		for _, p := range s.Personen {
			h.Personen = append(h.Personen, &haus.Person{
				Vorname:     p.Vorname,
				Nachname:    p.Nachname,
				Eigentuemer: p.Eigentuemer,
				HausID:      s.ID,
			})
		}
		out = append(out, h)
	}
	return out, nil
}
