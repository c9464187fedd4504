package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/mirrorkit/mirrorkit/internal/remote"
	"github.com/mirrorkit/mirrorkit/internal/utils"
)

// Engine wires enumeration, planning, the worker pool and the quarantine
// sweep into one sync pass.
type Engine struct {
	Dialer    remote.Dialer
	LocalRoot string
	Direction Direction
	Workers   int
	ChunkSize int
	Progress  ProgressFunc
}

// Run executes one full sync pass: enumerate both trees, plan, dispatch the
// tasks, then (download direction only) quarantine local-only leftovers.
// Connection and enumeration failures are fatal; individual transfer
// failures are collected on the result instead.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	tstart := time.Now()

	// Control session used for remote enumeration only; workers dial their own.
	ctrl, err := e.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	if e.Direction == DirectionDown {
		if err := utils.EnsureDir(filepath.Join(e.LocalRoot, QuarantineDirName)); err != nil {
			return nil, fmt.Errorf("ensure quarantine dir: %w", err)
		}
	}

	var (
		remoteTree RemoteTree
		localSet   mapset.Set[string]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		remoteTree, err = EnumerateRemote(gctx, ctrl)
		return err
	})
	g.Go(func() error {
		var err error
		localSet, err = EnumerateLocal(gctx, e.LocalRoot, QuarantineDirName)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("enumerated trees", "remote", len(remoteTree), "local", localSet.Cardinality())

	var plan *Plan
	if e.Direction == DirectionUp {
		plan = PlanUp(localSet, e.LocalRoot, remoteTree)
	} else {
		plan = PlanDown(remoteTree, e.LocalRoot)
	}

	for _, rel := range plan.Skipped {
		slog.Debug("skip", "path", rel)
	}

	result := &Result{
		Completed: mapset.NewSet[string](),
		Skipped:   plan.Skipped,
		Failed:    make(map[string]error),
	}

	transferrer := &Transferrer{
		LocalRoot: e.LocalRoot,
		Direction: e.Direction,
		ChunkSize: e.ChunkSize,
		Progress:  e.Progress,
	}

	pool := NewPool(e.Workers, e.Dialer)
	for out := range pool.Run(ctx, plan.Tasks, transferrer.Transfer) {
		switch out.Status {
		case StatusCompleted:
			result.Completed.Add(out.Path)
			result.Bytes += out.Bytes
			slog.Info("transferred", "path", out.Path, "size", humanize.Bytes(uint64(out.Bytes)))
		case StatusSkipped:
			result.Skipped = append(result.Skipped, out.Path)
			slog.Debug("skip", "path", out.Path, "reason", "matched at execution time")
		case StatusFailed:
			result.Failed[out.Path] = out.Err
			slog.Error("transfer failed", "path", out.Path, "error", out.Err)
		}
	}

	if e.Direction == DirectionDown {
		q := &Quarantine{LocalRoot: e.LocalRoot}
		result.Quarantined = q.Sweep(localSet, remoteTree)
	}

	result.Took = time.Since(tstart)
	slog.Info("sync done",
		"direction", e.Direction,
		"completed", result.Completed.Cardinality(),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
		"quarantined", len(result.Quarantined),
		"bytes", humanize.Bytes(uint64(result.Bytes)),
		"took", result.Took,
	)

	return result, nil
}
