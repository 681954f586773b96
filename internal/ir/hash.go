package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDeconstruction = "decon/deconstruction/v1"
	DomainBinding        = "decon/binding/v1"
	DomainSpec           = "decon/spec/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DeconstructionID computes the content-addressed ID of one decomposition
// request within a run. Stable across replays given the same inputs.
func DeconstructionID(runID string, seq int64, pattern, typ string) (string, error) {
	obj := IRObject{
		"run_id":  IRString(runID),
		"seq":     IRInt(seq),
		"pattern": IRString(pattern),
		"type":    IRString(typ),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DeconstructionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDeconstruction, canonical), nil
}

// BindingHash hashes the plain rendering of a binding list.
// Two decompositions producing the same names, types and values hash equal.
func BindingHash(plainBindings any) (string, error) {
	canonical, err := MarshalCanonical(plainBindings)
	if err != nil {
		return "", fmt.Errorf("BindingHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBinding, canonical), nil
}

// SpecHash hashes a compiled spec set rendered as canonical JSON bytes.
func SpecHash(canonicalSpec []byte) string {
	return hashWithDomain(DomainSpec, canonicalSpec)
}

// MustBindingHash is like BindingHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBindingHash(plainBindings any) string {
	hash, err := BindingHash(plainBindings)
	if err != nil {
		panic(err)
	}
	return hash
}
