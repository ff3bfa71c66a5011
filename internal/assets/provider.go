// Package assets holds the asset-transfer collaborator surface: the provider
// interface every fungible asset implements, and the native vault that the
// platform itself keeps books on.
//
// The core treats providers as hostile: a transfer call may have arbitrary
// side effects (including calling back into the platform), and only a nil
// error counts as success. An ignored failure must never be mistaken for a
// completed transfer.
package assets

import (
	"context"

	"github.com/google/uuid"

	id "givepool/pkg/domain"
)

// TransferProvider is the standard transfer interface for one fungible asset.
// A nil return is the only success signal; any error means no funds moved
// (or the provider's books are its own problem — the core aborts either way).
type TransferProvider interface {
	// TransferFrom pulls amount from the payer into the payee's holding.
	TransferFrom(ctx context.Context, from, to id.AccountID, amount int64) error
	// Transfer pushes amount from the platform's own holding to the payee.
	Transfer(ctx context.Context, to id.AccountID, amount int64) error
}

// escrowNamespace seeds deterministic per-project escrow identities.
var escrowNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// EscrowAccount derives the holding identity for a project's escrowed token
// funds. Deterministic so providers see a stable payee per project.
func EscrowAccount(projectID id.ProjectID) id.AccountID {
	return id.AccountID(uuid.NewSHA1(escrowNamespace, []byte("project-escrow:"+projectID.String())))
}
