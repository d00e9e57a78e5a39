package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

// BadgerIndex persists vectors in an embedded badger database and answers
// queries with an exact cosine scan of the namespace. It suits single-node
// and CLI use where Memgraph is not available.
type BadgerIndex struct {
	Dimension int

	db     *badger.DB
	logger *slog.Logger
}

// OpenBadgerIndex opens (or creates) an index at path. An empty path keeps
// the database in memory.
func OpenBadgerIndex(path string, dimension int, logger *slog.Logger) (*BadgerIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger index at %q: %w", path, err)
	}
	logger.Info("badger vector index opened", "path", path, "dimension", dimension)
	return &BadgerIndex{Dimension: dimension, db: db, logger: logger}, nil
}

func (b *BadgerIndex) Close(context.Context) error {
	return b.db.Close()
}

func (b *BadgerIndex) EnsureIndex(context.Context) error {
	return nil
}

func namespacePrefix(namespace string) []byte {
	return []byte("vec/" + namespace + "\x00")
}

func (b *BadgerIndex) Upsert(_ context.Context, namespace string, records []model.VectorRecord) error {
	for _, r := range records {
		if err := checkDimension(b.Dimension, r.Values, r.ID); err != nil {
			return err
		}
	}

	prefix := namespacePrefix(namespace)
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, r := range records {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to encode vector %s: %w", r.ID, err)
			}
			key := append(append([]byte(nil), prefix...), r.ID...)
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write vectors: %w", err)
	}
	return nil
}

func (b *BadgerIndex) Delete(_ context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	prefix := namespacePrefix(namespace)
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			key := append(append([]byte(nil), prefix...), id...)
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// Query filters on JSON-decoded metadata, so numeric filter values must be
// float64 to match.
func (b *BadgerIndex) Query(_ context.Context, vector []float32, topK int, namespace string, filter map[string]any) ([]model.RawCandidate, error) {
	if err := checkDimension(b.Dimension, vector, "query"); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []model.RawCandidate{}, nil
	}

	out := make([]model.RawCandidate, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = namespacePrefix(namespace)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r model.VectorRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
			}
			if !matches(r.Metadata, filter) {
				continue
			}
			out = append(out, model.RawCandidate{
				ID:       r.ID,
				Score:    Cosine(vector, r.Values),
				Metadata: r.Metadata,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan namespace %s: %w", namespace, err)
	}
	return best(out, topK), nil
}
