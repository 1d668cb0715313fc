package gql

import (
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/Yukasama/haus/domain/authinfo"
	"github.com/Yukasama/haus/domain/haus"
)

//go:embed schema.graphql
var schemaSDL string

// maxDepth bounds the nesting of incoming queries
const maxDepth = 8

type (
	hausResolver     = haus.Resolver
	authinfoResolver = authinfo.Resolver
)

// RootResolver serves both the Query and the Mutation type
type RootResolver struct {
	*hausResolver
	*authinfoResolver
}

// NewRootResolver combines the domain resolvers
func NewRootResolver(h *haus.Resolver, a *authinfo.Resolver) *RootResolver {
	return &RootResolver{hausResolver: h, authinfoResolver: a}
}

// Schema bundles the executable schema with its parsed AST used for document validation
type Schema struct {
	exec *graphql.Schema
	ast  *ast.Schema
}

// NewSchema parses the embedded SDL and binds it to root
func NewSchema(root *RootResolver) (*Schema, error) {
	exec, err := graphql.ParseSchema(schemaSDL, root, graphql.MaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}

	doc, loadErr := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
	if loadErr != nil {
		return nil, fmt.Errorf("load graphql schema: %v", loadErr)
	}

	return &Schema{exec: exec, ast: doc}, nil
}
