package model

import "strings"

// Address identifies a principal: an owner, a supporter or a transaction destination.
type Address string

const zeroHexAddress = "0x0000000000000000000000000000000000000000"

// Normalize returns the form addresses are compared and stored in. Surrounding space
// is dropped and hex addresses are lower-cased, so checksum casing does not yield a
// second principal. Other identifiers keep their case.
func (a Address) Normalize() Address {
	s := strings.TrimSpace(string(a))
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = strings.ToLower(s)
	}
	return Address(s)
}

// IsZero reports whether the address is the null principal.
func (a Address) IsZero() bool {
	s := a.Normalize()
	return s == "" || s == zeroHexAddress
}

func (a Address) String() string {
	return string(a)
}

// Addresses converts plain strings, keeping their order.
func Addresses(ids ...string) []Address {
	out := make([]Address, len(ids))
	for i, id := range ids {
		out[i] = Address(id)
	}
	return out
}

// NormalizeAll normalizes every address, keeping their order.
func NormalizeAll(ids []Address) []Address {
	if ids == nil {
		return nil
	}
	out := make([]Address, len(ids))
	for i, id := range ids {
		out[i] = id.Normalize()
	}
	return out
}
