package haus

import (
	"context"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/auth"
)

// Resolver resolves the house queries and mutations of the GraphQL schema
type Resolver struct {
	read  *ReadService
	write *WriteService
}

// NewResolver creates a new GraphQL resolver
func NewResolver(read *ReadService, write *WriteService) *Resolver {
	return &Resolver{read: read, write: write}
}

// SuchkriterienInput mirrors the GraphQL input of the same name
type SuchkriterienInput struct {
	Art          *string
	Preis        *float64
	Hausflaeche  *int32
	Verkaeuflich *bool
	Baudatum     *string
	Katalog      *string
	Strasse      *string
	Waermepumpe  *bool
	Pool         *bool
}

// AdresseInput mirrors the GraphQL input of the same name
type AdresseInput struct {
	Strasse    string
	Hausnummer *string
	Plz        string
}

// PersonInput mirrors the GraphQL input of the same name
type PersonInput struct {
	Vorname     string
	Nachname    string
	Eigentuemer *bool
}

// HausInput mirrors the GraphQL input of the same name
type HausInput struct {
	Art          *string
	Preis        float64
	Hausflaeche  int32
	Verkaeuflich bool
	Baudatum     *string
	Katalog      *string
	Features     *[]string
	Adresse      AdresseInput
	Personen     *[]PersonInput
}

// HausUpdateInput mirrors the GraphQL input of the same name
type HausUpdateInput struct {
	ID           graphql.ID
	Version      int32
	Art          *string
	Preis        float64
	Hausflaeche  int32
	Verkaeuflich bool
	Baudatum     *string
	Katalog      *string
	Features     *[]string
}

// CreatePayload is the result of the create mutation
type CreatePayload struct {
	id int64
}

func (p *CreatePayload) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(p.id, 10))
}

// UpdatePayload is the result of the update mutation
type UpdatePayload struct {
	version int
}

func (p *UpdatePayload) Version() int32 {
	return int32(p.version)
}

// Haus resolves haus(id)
func (r *Resolver) Haus(ctx context.Context, args struct{ ID graphql.ID }) (*HausResolver, error) {
	id, err := strconv.ParseInt(string(args.ID), 10, 64)
	if err != nil || !IDPattern.MatchString(string(args.ID)) {
		return nil, apperror.ErrNotFound.WithMessagef("Es gibt kein Haus mit der ID %s.", args.ID)
	}

	h, err := r.read.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return &HausResolver{h: h}, nil
}

// Haeuser resolves haeuser(suchkriterien)
func (r *Resolver) Haeuser(ctx context.Context, args struct{ Suchkriterien *SuchkriterienInput }) (*[]*HausResolver, error) {
	list, err := r.read.Find(ctx, args.Suchkriterien.toCriteria())
	if err != nil {
		return nil, err
	}

	out := make([]*HausResolver, len(list))
	for i, h := range list {
		out[i] = &HausResolver{h: h}
	}
	return &out, nil
}

// Create resolves the create mutation (roles admin or user)
func (r *Resolver) Create(ctx context.Context, args struct{ Input HausInput }) (*CreatePayload, error) {
	if err := auth.CheckRoles(ctx, auth.RoleAdmin, auth.RoleUser); err != nil {
		return nil, err
	}

	dto := args.Input.toDTO()
	if err := Validate(dto); err != nil {
		return nil, err
	}

	id, err := r.write.Create(ctx, dto.ToHaus())
	if err != nil {
		return nil, err
	}
	return &CreatePayload{id: id}, nil
}

// Update resolves the update mutation (roles admin or user)
func (r *Resolver) Update(ctx context.Context, args struct{ Input HausUpdateInput }) (*UpdatePayload, error) {
	if err := auth.CheckRoles(ctx, auth.RoleAdmin, auth.RoleUser); err != nil {
		return nil, err
	}

	in := args.Input
	dto := in.toDTO()
	if err := Validate(dto); err != nil {
		return nil, err
	}

	var id *int64
	if parsed, err := strconv.ParseInt(string(in.ID), 10, 64); err == nil {
		id = &parsed
	}

	version, err := r.write.Update(ctx, id, dto.ToPatch(), `"`+strconv.Itoa(int(in.Version))+`"`)
	if err != nil {
		return nil, err
	}
	return &UpdatePayload{version: version}, nil
}

// Delete resolves the delete mutation (role admin)
func (r *Resolver) Delete(ctx context.Context, args struct{ ID graphql.ID }) (*bool, error) {
	if err := auth.CheckRoles(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}

	deleted := false
	id, err := strconv.ParseInt(string(args.ID), 10, 64)
	if err != nil {
		return &deleted, nil
	}
	deleted, err = r.write.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (in *SuchkriterienInput) toCriteria() Suchkriterien {
	c := Suchkriterien{}
	if in == nil {
		return c
	}
	if in.Art != nil {
		c["art"] = *in.Art
	}
	if in.Preis != nil {
		c["preis"] = strconv.FormatFloat(*in.Preis, 'f', -1, 64)
	}
	if in.Hausflaeche != nil {
		c["hausflaeche"] = strconv.Itoa(int(*in.Hausflaeche))
	}
	if in.Verkaeuflich != nil {
		c["verkaeuflich"] = strconv.FormatBool(*in.Verkaeuflich)
	}
	if in.Baudatum != nil {
		c["baudatum"] = *in.Baudatum
	}
	if in.Katalog != nil {
		c["katalog"] = *in.Katalog
	}
	if in.Strasse != nil {
		c[KeyStrasse] = *in.Strasse
	}
	if in.Waermepumpe != nil {
		c[KeyWaermepumpe] = strconv.FormatBool(*in.Waermepumpe)
	}
	if in.Pool != nil {
		c[KeyPool] = strconv.FormatBool(*in.Pool)
	}
	return c
}

func (in *HausInput) toDTO() *HausDTO {
	preis := in.Preis
	flaeche := int(in.Hausflaeche)
	verkaeuflich := in.Verkaeuflich

	dto := &HausDTO{
		HausUpdateDTO: HausUpdateDTO{
			Art:          in.Art,
			Preis:        &preis,
			Hausflaeche:  &flaeche,
			Verkaeuflich: &verkaeuflich,
			Baudatum:     in.Baudatum,
			Katalog:      in.Katalog,
		},
		Adresse: &AdresseDTO{
			Strasse: in.Adresse.Strasse,
			Plz:     in.Adresse.Plz,
		},
	}
	if in.Features != nil {
		dto.Features = *in.Features
	}
	if in.Adresse.Hausnummer != nil {
		dto.Adresse.Hausnummer = *in.Adresse.Hausnummer
	}
	if in.Personen != nil {
		for _, p := range *in.Personen {
			dto.Personen = append(dto.Personen, PersonDTO{
				Vorname:     p.Vorname,
				Nachname:    p.Nachname,
				Eigentuemer: p.Eigentuemer != nil && *p.Eigentuemer,
			})
		}
	}
	return dto
}

func (in *HausUpdateInput) toDTO() *HausUpdateDTO {
	preis := in.Preis
	flaeche := int(in.Hausflaeche)
	verkaeuflich := in.Verkaeuflich

	dto := &HausUpdateDTO{
		Art:          in.Art,
		Preis:        &preis,
		Hausflaeche:  &flaeche,
		Verkaeuflich: &verkaeuflich,
		Baudatum:     in.Baudatum,
		Katalog:      in.Katalog,
	}
	if in.Features != nil {
		dto.Features = *in.Features
	}
	return dto
}

// HausResolver resolves the fields of the Haus type
type HausResolver struct {
	h *Haus
}

func (r *HausResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.h.ID, 10))
}

func (r *HausResolver) Version() int32 {
	return int32(r.h.Version)
}

func (r *HausResolver) Hausflaeche() int32 {
	return int32(r.h.Hausflaeche)
}

func (r *HausResolver) Art() *string {
	if r.h.Art == "" {
		return nil
	}
	art := string(r.h.Art)
	return &art
}

func (r *HausResolver) Preis() float64 {
	return r.h.Preis
}

func (r *HausResolver) Verkaeuflich() bool {
	return r.h.Verkaeuflich
}

func (r *HausResolver) Baudatum() *string {
	if r.h.Baudatum == nil {
		return nil
	}
	d := r.h.Baudatum.Format(time.DateOnly)
	return &d
}

func (r *HausResolver) Katalog() *string {
	if r.h.Katalog == "" {
		return nil
	}
	return &r.h.Katalog
}

func (r *HausResolver) Features() []string {
	if r.h.Features == nil {
		return []string{}
	}
	return r.h.Features
}

func (r *HausResolver) Adresse() *AdresseResolver {
	if r.h.Adresse == nil {
		return nil
	}
	return &AdresseResolver{a: r.h.Adresse}
}

func (r *HausResolver) Personen() []*PersonResolver {
	out := make([]*PersonResolver, len(r.h.Personen))
	for i, p := range r.h.Personen {
		out[i] = &PersonResolver{p: p}
	}
	return out
}

// AdresseResolver resolves the fields of the Adresse type
type AdresseResolver struct {
	a *Adresse
}

func (r *AdresseResolver) Strasse() string {
	return r.a.Strasse
}

func (r *AdresseResolver) Hausnummer() *string {
	if r.a.Hausnummer == "" {
		return nil
	}
	return &r.a.Hausnummer
}

func (r *AdresseResolver) Plz() string {
	return r.a.Plz
}

// PersonResolver resolves the fields of the Person type
type PersonResolver struct {
	p *Person
}

func (r *PersonResolver) Vorname() string {
	return r.p.Vorname
}

func (r *PersonResolver) Nachname() string {
	return r.p.Nachname
}

func (r *PersonResolver) Eigentuemer() bool {
	return r.p.Eigentuemer
}
