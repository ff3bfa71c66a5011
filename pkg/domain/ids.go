package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "givepool/pkg/domain-errors"
)

// Typed identifiers keep donor, admin and treasury identities from being
// mixed up with each other at compile time. Construct them via the Parse
// functions at trust boundaries; direct casting bypasses validation.

// AccountID identifies a platform participant: donor, project admin,
// creator, platform admin or treasury. The zero UUID is invalid everywhere.
type AccountID uuid.UUID

// AnonymousAccount is the well-known identity credited when an unsolicited
// native transfer is folded into the donation ledger.
var AnonymousAccount = AccountID(uuid.MustParse("00000000-0000-0000-0000-00000000a404"))

// ParseAccountID constructs an AccountID from external input.
// Errors: CodeInvalidIdentity when the value is empty, malformed or the nil UUID.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidIdentity, "account id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidIdentity, "account id must be a valid UUID")
	}
	if u == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidIdentity, "account id cannot be the zero UUID")
	}
	return AccountID(u), nil
}

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

// IsNil reports whether the account id is the invalid zero value.
func (a AccountID) IsNil() bool {
	return uuid.UUID(a) == uuid.Nil
}

// MarshalText implements encoding.TextMarshaler so account ids serialize as
// canonical UUID strings, including as JSON map keys.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ProjectID is the sequential identifier the registry assigns to a funding
// campaign. IDs start at 1 and are never reused; 0 is invalid.
type ProjectID uint64

// ParseProjectID constructs a ProjectID from external input.
// Errors: CodeUnknownProject when the value is not a positive integer.
func ParseProjectID(s string) (ProjectID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeUnknownProject, "project id must be a positive integer")
	}
	return ProjectID(n), nil
}

func (p ProjectID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// IsNil reports whether the project id is the invalid zero value.
func (p ProjectID) IsNil() bool {
	return p == 0
}
