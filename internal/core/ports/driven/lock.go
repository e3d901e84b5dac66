package driven

import (
	"context"
	"time"
)

// RunLocker serialises runs of the same source across processes.
type RunLocker interface {
	// Acquire takes the lock for key. It returns false, nil if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the lock for key.
	Release(ctx context.Context, key string) error
}
