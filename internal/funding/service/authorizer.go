package service

import (
	"context"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

// Authorizer checks registry permissions against stored role grants. A caller
// passes when any of their roles carries the permission.
type Authorizer struct {
	roles RoleStore
}

func NewAuthorizer(roles RoleStore) *Authorizer {
	return &Authorizer{roles: roles}
}

// Require returns CodeUnauthorized unless the account holds a role granting
// the permission.
func (a *Authorizer) Require(ctx context.Context, account id.AccountID, perm models.Permission) error {
	if account.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentity, "caller identity is required")
	}
	held, err := a.roles.RolesOf(ctx, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load caller roles")
	}
	for _, role := range held {
		if role.Grants(perm) {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeUnauthorized, "caller lacks permission %s", perm)
}
