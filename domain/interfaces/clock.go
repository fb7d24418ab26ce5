package interfaces

import (
	"context"
	"time"
)

// Clock abstracts wall time and pacing sleeps so duplicate detection
// and speed-multiplier timing stay deterministic under test.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, returning ctx.Err()
	// in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}
