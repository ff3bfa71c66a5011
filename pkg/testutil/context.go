package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "givepool/pkg/domain"
	"givepool/pkg/requestcontext"
)

// AuthenticatedContext returns a context carrying the given caller identity,
// as the auth middleware would have set it.
func AuthenticatedContext(ctx context.Context, account id.AccountID) context.Context {
	return requestcontext.WithAccountID(ctx, account)
}

// FrozenContext pins the request clock so time-dependent assertions are exact.
func FrozenContext(ctx context.Context, at time.Time) context.Context {
	return requestcontext.WithTime(ctx, at)
}

// NewAccount returns a fresh random account identity.
func NewAccount() id.AccountID {
	return id.AccountID(uuid.New())
}
