package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeExperimentID computes a deterministic experiment_id using SHA256.
// Formula: SHA256(name|createdAt)
// Returns hex-encoded hash (64 characters).
func ComputeExperimentID(name string, createdAt int64) string {
	data := fmt.Sprintf("%s|%d", name, createdAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeComparisonID computes a deterministic comparison_id using SHA256.
// Formula: SHA256(experiment_id|baseline_id|candidate_id|method|kind|computed_at)
// Returns hex-encoded hash (64 characters).
func ComputeComparisonID(
	experimentID string,
	baselineID string,
	candidateID string,
	method string,
	kind string,
	computedAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		experimentID,
		baselineID,
		candidateID,
		method,
		kind,
		computedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortID renders the first 8 bytes of a hex ID as base58 for log lines
// and report headings. Invalid hex falls back to the first 11 characters
// of the input.
func ShortID(hexID string) string {
	raw, err := hex.DecodeString(hexID)
	if err != nil || len(raw) < 8 {
		if len(hexID) > 11 {
			return hexID[:11]
		}
		return hexID
	}
	return base58.Encode(raw[:8])
}
