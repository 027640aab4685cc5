// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EntryStatus is the lifecycle state of a CacheEntry.
type EntryStatus string

const (
	StatusPending EntryStatus = "pending"
	StatusReady   EntryStatus = "ready"
	StatusFailed  EntryStatus = "failed"
)

// Settled reports whether the status is terminal.
func (s EntryStatus) Settled() bool {
	return s == StatusReady || s == StatusFailed
}

// CacheEntry is a snapshot of one key's resolution. An entry moves from
// Pending to exactly one of Ready or Failed.
type CacheEntry struct {
	Key    RequestKey
	Status EntryStatus

	// Value is set when Status is StatusReady. Subscribers of the same entry
	// share the pointer.
	Value *SearchResult

	// Err is set when Status is StatusFailed.
	Err error
}
