// Package identity maps raw actor references onto the public identities
// used in broadcasts.
package identity

import (
	"context"
	"errors"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/storage"
)

// ActorRef is a raw reference supplied by the connection's auth boundary:
// either a persistent account id or an ephemeral guest id with the
// display name the connection carries for it.
type ActorRef struct {
	AccountID   model.AccountID
	GuestID     string
	DisplayName string
}

// Resolver resolves actor references to broadcast-safe identities.
// Account references are resolved against the durable store; guest
// references resolve from the caller-supplied context alone.
type Resolver struct {
	store storage.Store
}

// New creates a Resolver
func New(store storage.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the public identity for the reference. An account id
// that does not resolve indicates a dangling reference into the registry
// and surfaces as ErrIdentityNotFound.
func (r *Resolver) Resolve(ctx context.Context, ref ActorRef) (model.Identity, error) {
	if ref.AccountID != 0 {
		acct, err := r.store.GetAccount(ctx, ref.AccountID)
		if err != nil {
			if errors.Is(err, model.ErrAccountNotFound) {
				return model.Identity{}, model.ErrIdentityNotFound
			}
			return model.Identity{}, err
		}
		return acct.Identity(), nil
	}
	return model.Identity{GuestID: ref.GuestID, DisplayName: ref.DisplayName}, nil
}
