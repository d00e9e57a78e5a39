// Package vector stores profile embeddings and answers nearest-neighbour
// queries scoped by namespace.
package vector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

type Index interface {
	// EnsureIndex creates the index if it does not exist yet.
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, namespace string, records []model.VectorRecord) error
	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, namespace string, ids []string) error
	// Query returns up to topK candidates ordered by similarity, best first.
	// Filter entries must equal the candidate's metadata value.
	Query(ctx context.Context, vector []float32, topK int, namespace string, filter map[string]any) ([]model.RawCandidate, error)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateFilter(filter map[string]any) error {
	for k := range filter {
		if !identifierPattern.MatchString(k) {
			return fmt.Errorf("%w: filter key %q", model.ErrInvalidRecord, k)
		}
	}
	return nil
}

func checkDimension(want int, got []float32, id string) error {
	if want > 0 && len(got) != want {
		return fmt.Errorf("%w: vector %q has dimension %d, index expects %d", model.ErrInvalidRecord, id, len(got), want)
	}
	return nil
}
