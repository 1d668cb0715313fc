package haus

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
)

// MIMEApplicationHALJSON is the content type of single and collection responses
const MIMEApplicationHALJSON = "application/hal+json"

// Link is a HAL link
type Link struct {
	Href string `json:"href"`
}

// Links are the HAL links of a house
type Links struct {
	Self   Link  `json:"self"`
	List   *Link `json:"list,omitempty"`
	Add    *Link `json:"add,omitempty"`
	Update *Link `json:"update,omitempty"`
	Remove *Link `json:"remove,omitempty"`
}

// AdresseModel is the address inside a HAL response. Missing values read "N/A".
type AdresseModel struct {
	Strasse    string `json:"strasse"`
	Hausnummer string `json:"hausnummer"`
	Plz        string `json:"plz"`
}

// HausModel is the HAL representation of a house
type HausModel struct {
	Art          Art          `json:"art,omitempty"`
	Preis        float64      `json:"preis"`
	Hausflaeche  int          `json:"hausflaeche"`
	Verkaeuflich bool         `json:"verkaeuflich"`
	Baudatum     string       `json:"baudatum,omitempty"`
	Katalog      string       `json:"katalog,omitempty"`
	Features     Features     `json:"features"`
	Adresse      AdresseModel `json:"adresse"`
	Links        Links        `json:"_links"`
}

// HaeuserModel is the HAL representation of a list of houses
type HaeuserModel struct {
	Embedded struct {
		Haeuser []HausModel `json:"haeuser"`
	} `json:"_embedded"`
}

// Handler handles the REST endpoints for houses
type Handler struct {
	read  *ReadService
	write *WriteService
	log   *slog.Logger
}

// NewHandler creates a new house handler
func NewHandler(read *ReadService, write *WriteService, log *slog.Logger) *Handler {
	return &Handler{
		read:  read,
		write: write,
		log:   log.With(logger.Scope("haus.rest")),
	}
}

// GetByID returns a single house
// @Summary      Get house by ID
// @Tags         haus
// @Produce      application/hal+json
// @Param        id path string true "House ID"
// @Param        If-None-Match header string false "Cached version, e.g. \"0\""
// @Success      200 {object} HausModel
// @Success      304 "Not modified"
// @Failure      404 {object} apperror.Error
// @Router       /rest/{id} [get]
func (h *Handler) GetByID(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if !acceptsHAL(c.Request()) {
		return c.NoContent(http.StatusNotAcceptable)
	}

	haus, err := h.read.FindByID(c.Request().Context(), id, false)
	if err != nil {
		return err
	}

	etag := fmt.Sprintf("%q", strconv.Itoa(haus.Version))
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}

	c.Response().Header().Set("ETag", etag)
	return hal(c, http.StatusOK, toModel(haus, baseURI(c.Request()), true))
}

// Find returns the houses matching the query parameters
// @Summary      Search houses
// @Tags         haus
// @Produce      application/hal+json
// @Success      200 {object} HaeuserModel
// @Failure      404 {object} apperror.Error "No match or invalid criteria"
// @Router       /rest [get]
func (h *Handler) Find(c echo.Context) error {
	if !acceptsHAL(c.Request()) {
		return c.NoContent(http.StatusNotAcceptable)
	}

	criteria := Suchkriterien{}
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			criteria[key] = values[0]
		}
	}

	list, err := h.read.Find(c.Request().Context(), criteria)
	if err != nil {
		return err
	}

	base := baseURI(c.Request())
	var result HaeuserModel
	result.Embedded.Haeuser = make([]HausModel, len(list))
	for i, haus := range list {
		result.Embedded.Haeuser[i] = toModel(haus, base, false)
	}
	return hal(c, http.StatusOK, result)
}

// Create stores a new house
// @Summary      Create a house
// @Tags         haus
// @Accept       json
// @Param        request body HausDTO true "House"
// @Success      201 "Location header points to the new house"
// @Failure      401 {object} apperror.Error
// @Failure      403 {object} apperror.Error
// @Failure      422 {object} apperror.Error
// @Router       /rest [post]
// @Security     bearerAuth
func (h *Handler) Create(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperror.NewBadRequest("Failed to read request body").WithInternal(err)
	}

	dto, err := DecodeHaus(body)
	if err != nil {
		return err
	}

	id, err := h.write.Create(c.Request().Context(), dto.ToHaus())
	if err != nil {
		return err
	}

	location := fmt.Sprintf("%s/%d", baseURI(c.Request()), id)
	h.log.Debug("created", slog.String("location", location))
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.NoContent(http.StatusCreated)
}

// Update changes the scalar fields of a house
// @Summary      Update a house
// @Tags         haus
// @Accept       json
// @Param        id path string true "House ID"
// @Param        If-Match header string true "Current version, e.g. \"0\""
// @Param        request body HausUpdateDTO true "House fields"
// @Success      204 "ETag header carries the new version"
// @Failure      404 {object} apperror.Error
// @Failure      412 {object} apperror.Error
// @Failure      422 {object} apperror.Error
// @Failure      428 {object} apperror.Error
// @Router       /rest/{id} [put]
// @Security     bearerAuth
func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperror.NewBadRequest("Failed to read request body").WithInternal(err)
	}
	dto, err := DecodeHausUpdate(body)
	if err != nil {
		return err
	}

	version := c.Request().Header.Get("If-Match")
	if version == "" {
		return apperror.ErrPreconditionRequired.WithMessage(`Header "If-Match" fehlt`)
	}

	newVersion, err := h.write.Update(c.Request().Context(), &id, dto.ToPatch(), version)
	if err != nil {
		return err
	}

	c.Response().Header().Set("ETag", fmt.Sprintf("%q", strconv.Itoa(newVersion)))
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a house. It answers 204 whether or not the house existed.
// @Summary      Delete a house
// @Tags         haus
// @Param        id path string true "House ID"
// @Success      204
// @Failure      401 {object} apperror.Error
// @Failure      403 {object} apperror.Error
// @Router       /rest/{id} [delete]
// @Security     bearerAuth
func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	if _, err := h.write.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(raw string) (int64, error) {
	if !IDPattern.MatchString(raw) {
		return 0, apperror.ErrNotFound.WithMessagef("Die Haus-ID %s ist ungueltig.", raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ErrNotFound.WithMessagef("Die Haus-ID %s ist ungueltig.", raw)
	}
	return id, nil
}

func hal(c echo.Context, status int, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return apperror.ErrInternal.WithInternal(err)
	}
	return c.Blob(status, MIMEApplicationHALJSON, data)
}

func acceptsHAL(r *http.Request) bool {
	accept := r.Header.Get(echo.HeaderAccept)
	if accept == "" {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mediaType {
		case MIMEApplicationHALJSON, echo.MIMEApplicationJSON, echo.MIMETextHTML, "*/*", "application/*", "text/*":
			return true
		}
	}
	return false
}

// baseURI returns scheme://host/path of r without query and without a trailing id
func baseURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get(echo.HeaderXForwardedProto); proto != "" {
		scheme = proto
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	if i := strings.LastIndex(path, "/"); i > 0 && IDPattern.MatchString(path[i+1:]) {
		path = path[:i]
	}
	return scheme + "://" + r.Host + path
}

func toModel(h *Haus, base string, all bool) HausModel {
	self := fmt.Sprintf("%s/%d", base, h.ID)
	links := Links{Self: Link{Href: self}}
	if all {
		links.List = &Link{Href: base}
		links.Add = &Link{Href: base}
		links.Update = &Link{Href: self}
		links.Remove = &Link{Href: self}
	}

	adresse := AdresseModel{Strasse: "N/A", Hausnummer: "N/A", Plz: "N/A"}
	if a := h.Adresse; a != nil {
		adresse.Strasse = orNA(a.Strasse)
		adresse.Hausnummer = orNA(a.Hausnummer)
		adresse.Plz = orNA(a.Plz)
	}

	m := HausModel{
		Art:          h.Art,
		Preis:        h.Preis,
		Hausflaeche:  h.Hausflaeche,
		Verkaeuflich: h.Verkaeuflich,
		Katalog:      h.Katalog,
		Features:     h.Features,
		Adresse:      adresse,
		Links:        links,
	}
	if m.Features == nil {
		m.Features = Features{}
	}
	if h.Baudatum != nil {
		m.Baudatum = h.Baudatum.Format(time.DateOnly)
	}
	return m
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
