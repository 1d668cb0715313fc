package gql

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
)

// Request is a GraphQL request body
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Response is a GraphQL response body
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors gqlerror.List   `json:"errors,omitempty"`
}

// Handler executes GraphQL requests
type Handler struct {
	schema *Schema
	log    *slog.Logger
}

// NewHandler creates a new GraphQL handler
func NewHandler(schema *Schema, log *slog.Logger) *Handler {
	return &Handler{
		schema: schema,
		log:    log.With(logger.Scope("gql")),
	}
}

// Serve handles POST /graphql
// @Summary      Execute a GraphQL operation
// @Tags         graphql
// @Accept       json
// @Produce      json
// @Param        request body Request true "GraphQL request"
// @Success      200 {object} Response
// @Failure      400 {object} apperror.Error "Malformed request"
// @Router       /graphql [post]
func (h *Handler) Serve(c echo.Context) error {
	var req Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("Malformed GraphQL request").WithInternal(err)
	}
	if req.Query == "" {
		return apperror.NewBadRequest("Missing GraphQL query")
	}

	if _, errs := gqlparser.LoadQuery(h.schema.ast, req.Query); len(errs) > 0 {
		h.log.Debug("rejected graphql document", slog.Int("errors", len(errs)))
		return c.JSON(http.StatusOK, Response{Errors: validationErrors(errs)})
	}

	result := h.schema.exec.Exec(c.Request().Context(), req.Query, req.OperationName, req.Variables)

	resp := Response{Data: result.Data}
	for _, qe := range result.Errors {
		e := fromQueryError(qe)
		if e.Extensions["code"] == CodeInternal && qe.ResolverError != nil {
			h.log.Error("graphql resolver failed", logger.Error(qe.ResolverError))
		}
		resp.Errors = append(resp.Errors, e)
	}
	return c.JSON(http.StatusOK, resp)
}
