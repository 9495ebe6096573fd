// Package hashing produces the content digests that guard persisted snapshots.
package hashing

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"trust-multisig/internal/model"

	"github.com/fxamacker/cbor"
)

// Calculate returns the hex encoded SHA-512 digest of data.
func Calculate(data []byte) string {
	h := sha512.Sum512(data)
	return hex.EncodeToString(h[:])
}

// EncodeSnapshot serializes the snapshot as canonical CBOR, so equal states always
// produce the same bytes, and returns the encoding with its digest.
func EncodeSnapshot(snapshot model.Snapshot) ([]byte, string, error) {
	data, err := cbor.Marshal(snapshot, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, "", errors.New("failed to encode the snapshot: " + err.Error())
	}
	return data, Calculate(data), nil
}

// DecodeSnapshot verifies data against digest before decoding it.
func DecodeSnapshot(data []byte, digest string) (model.Snapshot, error) {
	if actual := Calculate(data); actual != digest {
		return model.Snapshot{}, fmt.Errorf("expected %.16s..., got %.16s...: %w", digest, actual, model.ErrSnapshotCorrupt)
	}

	var snapshot model.Snapshot
	if err := cbor.Unmarshal(data, &snapshot); err != nil {
		return model.Snapshot{}, errors.New("failed to decode the snapshot: " + err.Error())
	}
	return snapshot, nil
}
