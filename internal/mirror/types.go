// Package mirror implements the directory-tree synchronization engine:
// enumeration of the local and remote hierarchies, size-based diffing,
// concurrent transfers over a bounded worker pool, and quarantine of
// local entries that vanished from the remote tree.
package mirror

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type Direction string

const (
	// DirectionDown mirrors remote to local; the remote tree is authoritative.
	DirectionDown Direction = "down"
	// DirectionUp mirrors local to remote; the local tree is authoritative.
	DirectionUp Direction = "up"
)

// Task is one pending transfer. Tasks are independent of each other; no
// ordering relationship exists between them.
type Task struct {
	Path string // normalized relative path
	Size int64  // source size in bytes, -1 when unknown
}

type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the result of exactly one task, produced by the worker that
// executed it.
type Outcome struct {
	Path   string
	Status Status
	Bytes  int64
	Err    error
}

// Result aggregates everything a run did.
type Result struct {
	Completed   mapset.Set[string]
	Skipped     []string
	Failed      map[string]error
	Quarantined []string
	Bytes       int64
	Took        time.Duration
}
