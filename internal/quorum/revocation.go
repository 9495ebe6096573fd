package quorum

import (
	"fmt"
	"trust-multisig/internal/model"
)

// RevocationRule selects how many revocations make a transaction revoked.
type RevocationRule string

const (
	// RevokeAtHalfQuorum revokes once revocations reach quorum/2 (integer division).
	RevokeAtHalfQuorum RevocationRule = "half"
	// RevokeAboveHalfQuorum revokes once revocations reach quorum/2 + 1.
	RevokeAboveHalfQuorum RevocationRule = "half-plus-one"

	DefaultRevocationRule = RevokeAtHalfQuorum
)

func ParseRevocationRule(s string) (RevocationRule, error) {
	switch RevocationRule(s) {
	case RevokeAtHalfQuorum, RevokeAboveHalfQuorum:
		return RevocationRule(s), nil
	case "":
		return DefaultRevocationRule, nil
	}
	return "", fmt.Errorf("unknown revocation rule %q: %w", s, model.ErrInvalidQuorum)
}

// Threshold never returns less than one, so a transaction without revocations is
// never revoked.
func (r RevocationRule) Threshold(quorum int) int {
	threshold := quorum / 2
	if r == RevokeAboveHalfQuorum {
		threshold++
	}
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

func (r RevocationRule) String() string {
	return string(r)
}
