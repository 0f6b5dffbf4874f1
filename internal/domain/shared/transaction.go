package shared

import "context"

// TransactionManager runs a function within a single storage transaction.
// Repository calls made with the context passed to fn join that transaction,
// so a child-record write and the recomputation of its parent's derived
// fields commit or roll back as one unit.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
