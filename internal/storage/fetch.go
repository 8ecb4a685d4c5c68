package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

const (
	fetchAttempts = 3
	fetchBackoff  = 500 * time.Millisecond
)

// Fetch reads the full content of an object, retrying transient failures.
// After the last failed attempt it returns the final error; callers treat
// that as the content being unavailable rather than retrying further.
func Fetch(ctx context.Context, s Storage, key string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(fetchBackoff):
			}
		}

		rc, _, err := s.Get(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return raw, nil
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", key, fetchAttempts, lastErr)
}
