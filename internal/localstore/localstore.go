// Package localstore is the durable key-value store kept on the device: the
// current user record and, for the offline variant, the whole spot list.
// Values are human-readable JSON.
package localstore

import (
	"context"
	"fmt"
	"regexp"
)

// Well-known keys
const (
	KeyCurrentUser  = "current_user"
	KeyParkingSpots = "parking_spots"
)

// Store is implemented by every local backend. Put is durable before it
// returns. Get returns apperr.ErrNotFound for keys never written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var keyPattern = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid local store key %q", key)
	}
	return nil
}
