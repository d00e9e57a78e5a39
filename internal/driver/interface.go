// Package driver runs Cypher against the graph database holding creators,
// identity edges and profile embeddings.
package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDriver is the narrow surface the store and vector packages need.
// Tests substitute an in-process fake keyed by query text.
type GraphDriver interface {
	// ExecuteQuery runs one statement in its own transaction and buffers the
	// records.
	ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error)
	// ExecuteWrite runs work in a single write transaction. Nothing work
	// wrote is committed when it returns an error. Work may be retried on
	// transient failures and must be repeatable.
	ExecuteWrite(ctx context.Context, work func(tx Tx) error) error
	// BuildIndices provisions constraints and property indexes; it is safe
	// to call on every start.
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

// Tx runs statements inside an ExecuteWrite transaction.
type Tx interface {
	Run(ctx context.Context, query string, params map[string]any) error
}
