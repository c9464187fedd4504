// Package remote abstracts the file-transfer endpoint behind a small session
// interface so the sync engine never talks wire protocol directly.
package remote

import (
	"context"
	"io"
)

// Endpoint is one exclusive, authenticated session to the remote endpoint.
// A session is owned by a single goroutine at a time and is never shared.
//
// All paths are interpreted relative to the session's current working
// directory, which a Dialer positions at the configured remote root.
type Endpoint interface {
	// ChangeDir moves the session's working directory. It fails distinctly
	// when the target is not a directory or is inaccessible.
	ChangeDir(path string) error

	// CurrentDir reports the session's absolute working directory.
	CurrentDir() (string, error)

	// List returns the entry names under path. Names carry no type metadata;
	// callers classify entries with a ChangeDir probe.
	List(path string) ([]string, error)

	// Size reports the byte count of the file at path.
	Size(path string) (int64, error)

	// Fetch opens the file at path for streamed reading.
	Fetch(path string) (io.ReadCloser, error)

	// Store streams r into the file at path, replacing any existing content.
	Store(path string, r io.Reader) error

	// MakeDir creates a single directory. Creating a directory that already
	// exists is an error at this layer; ensure-directory logic above treats
	// it as success.
	MakeDir(path string) error

	Close() error
}

// Dialer creates connected, authenticated sessions rooted at the remote
// sync root. Each worker dials its own session and keeps it for its lifetime.
type Dialer interface {
	Dial(ctx context.Context) (Endpoint, error)
}
