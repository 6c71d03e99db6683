package tools

import "context"

// TaskFunc defines a function executed asynchronously.
type TaskFunc func(ctx context.Context) error

// Dispatch runs the task in a separate goroutine. fire-and-forget solution
func Dispatch(ctx context.Context, _ string, fn TaskFunc) {
	go func() {
		_ = fn(ctx)
	}()
}
