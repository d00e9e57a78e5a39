// Package store persists creator profiles and the identity graph derived
// from them.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

type ProfileStore interface {
	EnsureSchema(ctx context.Context) error
	// UpsertProfile is idempotent per record key. A record that carries a
	// platform ID replaces the record stored under its handle key when that
	// one has no ID yet.
	UpsertProfile(ctx context.Context, p model.ProfileRecord) error
	GetProfile(ctx context.Context, key string) (model.ProfileRecord, bool, error)
	ListProfiles(ctx context.Context) ([]model.ProfileRecord, error)
	// SaveIdentities replaces the stored clusters and identity edges.
	SaveIdentities(ctx context.Context, clusters []model.IdentityCluster, suggestions []model.IdentityEdge) error
	ListClusters(ctx context.Context) ([]model.IdentityCluster, error)
	ClusterIndex(ctx context.Context) (model.ClusterIndex, error)
}

func validateProfile(p model.ProfileRecord) error {
	if strings.TrimSpace(p.Platform) == "" {
		return fmt.Errorf("%w: profile %q has no platform", model.ErrInvalidRecord, p.Key())
	}
	if p.ID == "" && p.Handle == "" {
		return fmt.Errorf("%w: profile on %s has neither id nor handle", model.ErrInvalidRecord, p.Platform)
	}
	return nil
}

// platformID is the key part after the platform prefix.
func platformID(p model.ProfileRecord) string {
	return strings.TrimPrefix(p.Key(), p.Platform+":")
}
