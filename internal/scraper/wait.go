package scraper

import (
	"context"
	"time"

	"FlyerScraper/internal/models"
)

// Poll calls check every interval until it reports done, returns an error,
// ctx ends or timeout passes. Running out of time yields a *models.TimeoutError.
func Poll[T any](ctx context.Context, timeout, interval time.Duration, what string, check func(context.Context) (T, bool, error)) (T, error) {
	var zero T
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		v, done, err := check(ctx)
		if err != nil {
			return zero, err
		}
		if done {
			return v, nil
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-deadline.C:
			return zero, &models.TimeoutError{What: what, After: timeout}
		case <-ticker.C:
		}
	}
}

// WaitVisible waits until selector matches a visible element.
func WaitVisible(ctx context.Context, s Session, selector string, timeout, interval time.Duration) error {
	_, err := Poll(ctx, timeout, interval, selector, func(ctx context.Context) (struct{}, bool, error) {
		ok, err := s.Visible(ctx, selector)
		return struct{}{}, ok, err
	})
	return err
}

// WaitVisibleText waits until selector is visible and returns its text.
func WaitVisibleText(ctx context.Context, s Session, selector string, timeout, interval time.Duration) (string, error) {
	if err := WaitVisible(ctx, s, selector, timeout, interval); err != nil {
		return "", err
	}
	return s.Text(ctx, selector)
}

// Sleep pauses for d or until ctx ends, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
