package model

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies a ledger account in EIP-55 checksummed hex form.
type Address string

// ParseAddress validates s as a 20-byte hex account address and normalises it.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", ErrInvalidAddress.WithMessage("invalid account address %q", s)
	}
	return Address(common.HexToAddress(s).Hex()), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is empty or the zero account.
func (a Address) IsZero() bool {
	return a == "" || common.HexToAddress(string(a)) == (common.Address{})
}

// Equal compares addresses case-insensitively.
func (a Address) Equal(b Address) bool {
	return strings.EqualFold(string(a), string(b))
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = ""
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
