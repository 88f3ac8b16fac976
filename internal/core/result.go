package core

// Status is the state of a single view fetch.
type Status int

const (
	StatusPending Status = iota
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Result is the outcome of one fetch: still pending, loaded with data, or
// failed with a user-facing reason. Views render from it without holding
// their own loading or error flags.
type Result[T any] struct {
	status Status
	data   T
	reason string
}

func Pending[T any]() Result[T] {
	return Result[T]{status: StatusPending}
}

func Loaded[T any](data T) Result[T] {
	return Result[T]{status: StatusLoaded, data: data}
}

func Failed[T any](reason string) Result[T] {
	return Result[T]{status: StatusFailed, reason: reason}
}

func (r Result[T]) Status() Status  { return r.status }
func (r Result[T]) IsPending() bool { return r.status == StatusPending }
func (r Result[T]) IsLoaded() bool  { return r.status == StatusLoaded }
func (r Result[T]) IsFailed() bool  { return r.status == StatusFailed }

// Data returns the loaded value, or the zero value when not loaded.
func (r Result[T]) Data() T { return r.data }

// Reason returns the failure message, or "" when not failed.
func (r Result[T]) Reason() string { return r.reason }
