// Package collection guards mutations of the remote staging collection behind
// its review-lifecycle status. The lifecycle is
// work-in-progress -> to-review -> to-sign -> signed, with a reject edge from
// to-review back to work-in-progress. This is a guard, not a workflow engine:
// status is re-read from the store immediately before every assertion because
// other operators can move the collection between invocations.
package collection

import (
	"context"
	"fmt"
	"slices"
	"strings"

	f "github.com/addons-ops/blocktool/pkg/functional"
)

// Status is the review-lifecycle label on the remote collection.
type Status string

const (
	StatusWorkInProgress Status = "work-in-progress"
	StatusToReview       Status = "to-review"
	StatusToSign         Status = "to-sign"
	StatusSigned         Status = "signed"
)

// InvalidStateError reports a mutating operation attempted while the
// collection is not in a permitted status.
type InvalidStateError struct {
	Current Status
	Allowed []Status
}

func (e *InvalidStateError) Error() string {
	allowed := f.Map(e.Allowed, func(s Status) string { return string(s) })
	return fmt.Sprintf("collection is %q, operation requires one of [%s]", e.Current, strings.Join(allowed, ", "))
}

// AssertState fails with an InvalidStateError unless current is one of the
// allowed statuses. It has no side effects.
func AssertState(current Status, allowed ...Status) error {
	if slices.Contains(allowed, current) {
		return nil
	}
	return &InvalidStateError{Current: current, Allowed: slices.Clone(allowed)}
}

// Store is the external collection whose status label is read and written.
type Store interface {
	CollectionStatus(ctx context.Context) (Status, error)
	SetCollectionStatus(ctx context.Context, status Status) error
}

// CreateStates returns the statuses from which staging new records is
// allowed. Normally records may only be staged on top of a signed collection;
// permissive mode additionally allows piling onto an in-flight changeset.
func CreateStates(permissive bool) []Status {
	if permissive {
		return []Status{StatusSigned, StatusWorkInProgress, StatusToReview}
	}
	return []Status{StatusSigned}
}

// AssertCanCreate re-reads the collection status and fails unless staging a
// record is currently permitted.
func AssertCanCreate(ctx context.Context, store Store, permissive bool) error {
	current, err := store.CollectionStatus(ctx)
	if err != nil {
		return err
	}
	return AssertState(current, CreateStates(permissive)...)
}

// RequestReview moves a work-in-progress changeset to to-review.
func RequestReview(ctx context.Context, store Store) error {
	return transition(ctx, store, StatusToReview, StatusWorkInProgress)
}

// Sign approves a to-review changeset by requesting to-sign; the remote
// signer moves it to signed.
func Sign(ctx context.Context, store Store) error {
	return transition(ctx, store, StatusToSign, StatusToReview)
}

// Reject sends a to-review changeset back to work-in-progress.
func Reject(ctx context.Context, store Store) error {
	return transition(ctx, store, StatusWorkInProgress, StatusToReview)
}

func transition(ctx context.Context, store Store, target Status, allowed ...Status) error {
	current, err := store.CollectionStatus(ctx)
	if err != nil {
		return err
	}
	if err := AssertState(current, allowed...); err != nil {
		return err
	}
	return store.SetCollectionStatus(ctx, target)
}
