// Package seen remembers which bet IIDs have already been observed.
//
// The watcher marks every IID of a cycle with the cycle's start time and then
// evicts entries older than start-lookback. A zero lookback therefore keeps
// exactly the IIDs of the latest cycle.
package seen

import (
	"context"
	"time"
)

// Tracker is the seen-bet store used by the watcher.
type Tracker interface {
	HasSeen(ctx context.Context, iid string) (bool, error)
	MarkSeen(ctx context.Context, iid string, at time.Time) error
	// EvictOlderThan drops entries marked strictly before cutoff.
	EvictOlderThan(ctx context.Context, cutoff time.Time) error
	Len(ctx context.Context) (int, error)
	// Touch keeps existing entries alive; called once per cycle, including
	// cycles that fail before marking anything.
	Touch(ctx context.Context) error
	Close() error
}
