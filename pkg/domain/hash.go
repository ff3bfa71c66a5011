package domain

import (
	"strings"

	dErrors "givepool/pkg/domain-errors"
)

// ContentHash is an opaque SHA-256 reference to off-platform content:
// project metadata documents and evidence artifacts. The core never
// dereferences it; it only records and returns it.
type ContentHash string

const contentHashLen = 64

// ParseContentHash constructs a ContentHash from external input.
// Errors: CodeValidation when the value is not 64 lowercase hex characters.
func ParseContentHash(s string) (ContentHash, error) {
	s = strings.TrimSpace(s)
	if len(s) != contentHashLen {
		return "", dErrors.New(dErrors.CodeValidation, "content hash must be 64 hex characters")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", dErrors.New(dErrors.CodeValidation, "content hash must be lowercase hex")
		}
	}
	return ContentHash(s), nil
}

func (h ContentHash) String() string {
	return string(h)
}

// IsNil reports whether the hash is unset.
func (h ContentHash) IsNil() bool {
	return h == ""
}
