package storage

import (
	"github.com/dealmate/couponengine/internal/types"
)

// Storage is the interface for all output backends.
type Storage interface {
	// Store persists a batch of coupons.
	Store(coupons []*types.RawCoupon) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
