package cache

import "time"

// BytesCache stores raw bytes with per-key TTL. The ledger client uses
// it to keep authorization verdicts off the hot follow path.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
