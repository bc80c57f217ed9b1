package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateRunID creates a unique, time-ordered run ID.
// Format: run-<timestamp>-<hash>
// Example: run-20260825T143052Z-a3f9c2
func GenerateRunID(timestamp time.Time, provider, output string) string {
	ts := timestamp.UTC().Format("20060102T150405Z")

	input := fmt.Sprintf("%s|%s|%d", provider, output, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])

	return fmt.Sprintf("run-%s-%s", ts, shortHash)
}
