package mirror

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mirrorkit/mirrorkit/internal/utils"
)

// QuarantineDirName is the reserved local subdirectory that receives files
// no longer present in the authoritative remote tree. Quarantining is a move
// rather than a delete, so nothing is destroyed — the audit trail survives.
const QuarantineDirName = "old"

// Quarantine relocates local-only entries under the quarantine root,
// preserving their relative structure.
type Quarantine struct {
	LocalRoot string
}

// Sweep moves every local path absent from the remote listing to
// old/<same path>. It runs only after the worker pool has drained, so it
// needs no synchronization with transfers. A path whose transfer failed in
// this run is not local-only: only absence from the remote listing counts.
// Per-entry move failures are logged and skipped; the sweep continues.
func (q *Quarantine) Sweep(local mapset.Set[string], tree RemoteTree) []string {
	orphans := local.Difference(tree.Paths()).ToSlice()
	sort.Strings(orphans)

	var moved []string
	for _, rel := range orphans {
		src := filepath.Join(q.LocalRoot, filepath.FromSlash(rel))
		dst := filepath.Join(q.LocalRoot, QuarantineDirName, filepath.FromSlash(rel))

		if err := utils.EnsureParent(dst); err != nil {
			slog.Warn("quarantine mkdir failed", "path", rel, "error", err)
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			slog.Warn("quarantine move failed", "path", rel, "error", err)
			continue
		}

		slog.Info("quarantined", "path", rel, "to", path.Join(QuarantineDirName, rel))
		moved = append(moved, rel)
	}

	return moved
}
