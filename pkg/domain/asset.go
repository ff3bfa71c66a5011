package domain

import (
	"strings"

	dErrors "givepool/pkg/domain-errors"
)

// AssetID identifies a fungible asset accepted for donations.
// Invariant: 2-16 uppercase alphanumeric characters.
//
// The native asset has its own well-known id and is always accepted without
// allowlisting; every other asset must be approved by the registry (or the
// allow-all override must be on).
type AssetID string

// NativeAsset is the platform's base currency. It never appears in the
// allowlist because it is implicitly allowed.
const NativeAsset AssetID = "NATIVE"

// ParseAssetID constructs an AssetID from external input.
// Errors: CodeAssetNotAllowed for empty or malformed identifiers; allowlist
// membership is checked separately by the registry.
func ParseAssetID(s string) (AssetID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || len(s) > 16 {
		return "", dErrors.New(dErrors.CodeAssetNotAllowed, "asset id must be 2-16 characters")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", dErrors.New(dErrors.CodeAssetNotAllowed, "asset id must be alphanumeric")
		}
	}
	return AssetID(s), nil
}

func (a AssetID) String() string {
	return string(a)
}

// IsNative reports whether the asset is the platform's base currency.
func (a AssetID) IsNative() bool {
	return a == NativeAsset
}
