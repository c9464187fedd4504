package mirror

import (
	"errors"
	"io/fs"
	"net/textproto"
	"os"

	"github.com/jlaffaye/ftp"
)

// ProbeClass labels why a size probe failed. Every non-found class currently
// collapses to "treat the destination as absent and transfer" — that is
// deliberate policy, kept explicit here so callers branch on a named class
// instead of swallowing arbitrary errors.
type ProbeClass int

const (
	ProbeFound ProbeClass = iota
	ProbeNotFound
	ProbePermission
	ProbeTransient
)

func (c ProbeClass) String() string {
	switch c {
	case ProbeFound:
		return "found"
	case ProbeNotFound:
		return "not-found"
	case ProbePermission:
		return "permission"
	default:
		return "transient"
	}
}

// probeLocalSize reports the byte size of the file at path. A directory at
// path counts as not-found: it can never satisfy a file-size match.
func probeLocalSize(path string) (int64, ProbeClass) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, classifyProbeErr(err)
	}
	if info.IsDir() {
		return 0, ProbeNotFound
	}
	return info.Size(), ProbeFound
}

// classifyProbeErr distinguishes not-found, permission-denied and transient
// failures from both the local filesystem and the transfer endpoint.
func classifyProbeErr(err error) ProbeClass {
	switch {
	case err == nil:
		return ProbeFound
	case errors.Is(err, fs.ErrNotExist):
		return ProbeNotFound
	case errors.Is(err, fs.ErrPermission):
		return ProbePermission
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case ftp.StatusFileUnavailable:
			// 550 covers both absent and unreadable; the protocol does not
			// say which, so the entry is reported as not-found.
			return ProbeNotFound
		case ftp.StatusNotLoggedIn:
			return ProbePermission
		}
	}

	return ProbeTransient
}
