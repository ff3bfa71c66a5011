//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseAccountID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseAccountID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE donors;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseAccountID(input)

		if err == nil {
			roundTrip, err2 := ParseAccountID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}

		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAssetID verifies accepted asset ids always round-trip to themselves.
func FuzzParseAssetID(f *testing.F) {
	f.Add("NATIVE")
	f.Add("usdx")
	f.Add("")
	f.Add("A B")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseAssetID(input)
		if err != nil {
			return
		}
		again, err := ParseAssetID(id.String())
		if err != nil {
			t.Errorf("accepted asset id %q failed round-trip: %v", id, err)
		}
		if again != id {
			t.Error("round-trip changed asset id")
		}
	})
}
