package gql

import (
	"net/http"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/Yukasama/haus/pkg/apperror"
)

// Extension codes
const (
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// extensionCode classifies a resolver error
func extensionCode(err error) string {
	appErr, ok := apperror.As(err)
	if !ok {
		return CodeInternal
	}

	switch {
	case appErr.HTTPStatus == http.StatusUnauthorized:
		return CodeUnauthenticated
	case appErr.HTTPStatus == http.StatusForbidden:
		return CodeForbidden
	case appErr.Code == apperror.ErrValidation.Code:
		return CodeValidationFailed
	case appErr.HTTPStatus >= http.StatusInternalServerError:
		return CodeInternal
	default:
		return CodeBadUserInput
	}
}

// fromQueryError converts an execution error into a gqlerror with an extension code.
// Errors without a resolver cause come from document or variable validation.
func fromQueryError(qe *gqlerrors.QueryError) *gqlerror.Error {
	out := &gqlerror.Error{
		Message:    qe.Message,
		Extensions: map[string]any{},
	}
	for k, v := range qe.Extensions {
		out.Extensions[k] = v
	}
	for _, loc := range qe.Locations {
		out.Locations = append(out.Locations, gqlerror.Location{Line: loc.Line, Column: loc.Column})
	}
	for _, p := range qe.Path {
		switch v := p.(type) {
		case string:
			out.Path = append(out.Path, ast.PathName(v))
		case int:
			out.Path = append(out.Path, ast.PathIndex(v))
		}
	}

	if qe.ResolverError == nil {
		out.Extensions["code"] = CodeValidationFailed
		return out
	}

	out.Extensions["code"] = extensionCode(qe.ResolverError)
	if appErr, ok := apperror.As(qe.ResolverError); ok {
		out.Message = appErr.Message
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			out.Message = apperror.ErrInternal.Message
		}
		for k, v := range appErr.Details {
			out.Extensions[k] = v
		}
	} else {
		out.Message = apperror.ErrInternal.Message
	}
	return out
}

// validationErrors marks document validation errors
func validationErrors(list gqlerror.List) gqlerror.List {
	for _, e := range list {
		if e.Extensions == nil {
			e.Extensions = map[string]any{}
		}
		e.Extensions["code"] = CodeValidationFailed
	}
	return list
}
