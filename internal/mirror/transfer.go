package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mirrorkit/mirrorkit/internal/remote"
	"github.com/mirrorkit/mirrorkit/internal/utils"
)

// Transferrer executes single transfer tasks against a worker-owned session.
// It is stateless across tasks, so one instance serves the whole pool.
type Transferrer struct {
	LocalRoot string
	Direction Direction
	ChunkSize int
	Progress  ProgressFunc
}

func (t *Transferrer) chunk() int {
	if t.ChunkSize > 0 {
		return t.ChunkSize
	}
	return DefaultChunkSize
}

// Transfer runs one task on ep and reports its outcome. Errors never escape:
// they are recorded on the outcome so one bad file cannot sink the pool.
func (t *Transferrer) Transfer(ctx context.Context, ep remote.Endpoint, task *Task) *Outcome {
	if err := ctx.Err(); err != nil {
		return failedOutcome(task, 0, err)
	}

	if t.Direction == DirectionUp {
		return t.upload(ep, task)
	}
	return t.download(ep, task)
}

func (t *Transferrer) download(ep remote.Endpoint, task *Task) *Outcome {
	dest := filepath.Join(t.LocalRoot, filepath.FromSlash(task.Path))

	// Plans go stale between planning and execution: re-check the skip
	// condition against the live file.
	if size, class := probeLocalSize(dest); class == ProbeFound && task.Size >= 0 && size == task.Size {
		return &Outcome{Path: task.Path, Status: StatusSkipped}
	}

	if err := utils.EnsureParent(dest); err != nil {
		return failedOutcome(task, 0, fmt.Errorf("ensure local dir for %q: %w", task.Path, err))
	}

	src, err := ep.Fetch(task.Path)
	if err != nil {
		return failedOutcome(task, 0, fmt.Errorf("fetch %q: %w", task.Path, err))
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return failedOutcome(task, 0, fmt.Errorf("create %q: %w", dest, err))
	}

	cr := &countingReader{r: src, chunk: t.chunk(), path: task.Path, total: task.Size, fn: t.Progress}
	_, err = io.Copy(dst, cr)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// No temp-and-rename staging: an interrupted file stays truncated
		// and is picked up again on the next run.
		return failedOutcome(task, cr.n, fmt.Errorf("write %q: %w", dest, err))
	}

	return &Outcome{Path: task.Path, Status: StatusCompleted, Bytes: cr.n}
}

func (t *Transferrer) upload(ep remote.Endpoint, task *Task) *Outcome {
	src := filepath.Join(t.LocalRoot, filepath.FromSlash(task.Path))

	// Re-check against the live remote before pushing bytes. A failed probe
	// means absent or unknowable; either way the transfer proceeds.
	if task.Size >= 0 {
		if size, err := ep.Size(task.Path); err == nil && size == task.Size {
			return &Outcome{Path: task.Path, Status: StatusSkipped}
		}
	}

	if err := ensureRemoteDir(ep, path.Dir(task.Path)); err != nil {
		return failedOutcome(task, 0, err)
	}

	f, err := os.Open(src)
	if err != nil {
		return failedOutcome(task, 0, fmt.Errorf("open %q: %w", src, err))
	}
	defer f.Close()

	cr := &countingReader{r: f, chunk: t.chunk(), path: task.Path, total: task.Size, fn: t.Progress}
	if err := ep.Store(task.Path, cr); err != nil {
		return failedOutcome(task, cr.n, fmt.Errorf("store %q: %w", task.Path, err))
	}

	return &Outcome{Path: task.Path, Status: StatusCompleted, Bytes: cr.n}
}

// ensureRemoteDir guarantees dir exists on the remote, creating missing
// ancestors in order. Workers race to create shared ancestors for different
// files; an "already exists" rejection from MakeDir is success, which is why
// creation errors are judged only by the final enter probe.
func ensureRemoteDir(ep remote.Endpoint, dir string) error {
	if dir == "." || dir == "" || dir == "/" {
		return nil
	}

	if enterable(ep, dir) {
		return nil
	}

	cur := ""
	for _, elem := range strings.Split(dir, "/") {
		cur = path.Join(cur, elem)
		_ = ep.MakeDir(cur) // may already exist, possibly via a concurrent worker
	}

	if !enterable(ep, dir) {
		return fmt.Errorf("ensure remote dir %q failed", dir)
	}
	return nil
}

// enterable probes dir with a ChangeDir round trip, restoring the prior
// working directory afterward.
func enterable(ep remote.Endpoint, dir string) bool {
	prev, err := ep.CurrentDir()
	if err != nil {
		return false
	}
	if err := ep.ChangeDir(dir); err != nil {
		return false
	}
	return ep.ChangeDir(prev) == nil
}
