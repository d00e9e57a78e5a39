package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

const (
	profilePrefix = "profile/"
	clustersKey   = "identity/clusters"
	edgesKey      = "identity/edges"
)

// BadgerStore persists profiles and the identity graph in an embedded
// badger database. Profiles are stored as JSON under "profile/<key>"; the
// identity graph is replaced as a whole on every SaveIdentities.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadgerStore opens (or creates) a store at path. An empty path keeps
// the database in memory.
func OpenBadgerStore(path string, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %q: %w", path, err)
	}
	logger.Info("badger store opened", "path", path, "in_memory", path == "")
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *BadgerStore) EnsureSchema(context.Context) error {
	return nil
}

func (s *BadgerStore) UpsertProfile(_ context.Context, p model.ProfileRecord) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", p.Key(), err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if hk, ok := p.HandleKey(); ok {
			if err := dropHandleOnly(txn, profilePrefix+hk); err != nil {
				return err
			}
		}
		return txn.Set([]byte(profilePrefix+p.Key()), data)
	})
}

func dropHandleOnly(txn *badger.Txn, key string) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var old model.ProfileRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &old)
	}); err != nil {
		return fmt.Errorf("failed to decode profile %s: %w", key, err)
	}
	if old.ID != "" {
		return nil
	}
	return txn.Delete([]byte(key))
}

func (s *BadgerStore) GetProfile(_ context.Context, key string) (model.ProfileRecord, bool, error) {
	var p model.ProfileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profilePrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.ProfileRecord{}, false, nil
	}
	if err != nil {
		return model.ProfileRecord{}, false, fmt.Errorf("failed to read profile %s: %w", key, err)
	}
	return p, true, nil
}

// ListProfiles returns profiles ordered by key; badger iterates in key order.
func (s *BadgerStore) ListProfiles(context.Context) ([]model.ProfileRecord, error) {
	var out []model.ProfileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profilePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p model.ProfileRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) SaveIdentities(_ context.Context, clusters []model.IdentityCluster, suggestions []model.IdentityEdge) error {
	if clusters == nil {
		clusters = []model.IdentityCluster{}
	}
	if suggestions == nil {
		suggestions = []model.IdentityEdge{}
	}
	clusterData, err := json.Marshal(clusters)
	if err != nil {
		return fmt.Errorf("failed to encode clusters: %w", err)
	}
	edgeData, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(clustersKey), clusterData); err != nil {
			return err
		}
		return txn.Set([]byte(edgesKey), edgeData)
	})
	if err != nil {
		return fmt.Errorf("failed to save identity graph: %w", err)
	}
	s.logger.Debug("identity graph saved", "clusters", len(clusters), "suggestions", len(suggestions))
	return nil
}

func (s *BadgerStore) ListClusters(context.Context) ([]model.IdentityCluster, error) {
	var clusters []model.IdentityCluster
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(clustersKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &clusters)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	if len(clusters) == 0 {
		return nil, nil
	}
	return clusters, nil
}

// Suggestions returns the advisory edges saved by the last SaveIdentities.
func (s *BadgerStore) Suggestions(context.Context) ([]model.IdentityEdge, error) {
	var edges []model.IdentityEdge
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(edgesKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &edges)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return edges, nil
}

func (s *BadgerStore) ClusterIndex(ctx context.Context) (model.ClusterIndex, error) {
	clusters, err := s.ListClusters(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewClusterIndex(clusters), nil
}
