package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// NewOrderID generates the human-readable order identifier: a millisecond
// timestamp with a random 4-digit suffix. Collisions are possible in theory;
// the store re-rolls once on a unique violation.
func NewOrderID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("OD%d%04d", time.Now().UnixMilli(), suffix)
}
