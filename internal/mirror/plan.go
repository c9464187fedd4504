package mirror

import (
	"log/slog"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Plan is the task list for one run plus the paths that already match and
// need no transfer. Size equality is the sole idempotency mechanism: a
// destination file with matching size but different content is never
// re-transferred.
type Plan struct {
	Tasks   []*Task
	Skipped []string
}

// PlanDown builds the download task list: every remote path is a candidate,
// and a candidate skips only when the local counterpart reports the same
// byte size. Absent and size-mismatched are treated identically — a full
// re-transfer from offset zero. A failed local size probe counts as absent.
func PlanDown(tree RemoteTree, localRoot string) *Plan {
	plan := &Plan{}

	for rel, size := range tree {
		localSize, class := probeLocalSize(filepath.Join(localRoot, filepath.FromSlash(rel)))

		if class == ProbeFound && size >= 0 && localSize == size {
			plan.Skipped = append(plan.Skipped, rel)
			continue
		}

		if class == ProbePermission || class == ProbeTransient {
			slog.Warn("local size probe failed, treating as absent", "path", rel, "class", class)
		}
		plan.Tasks = append(plan.Tasks, &Task{Path: rel, Size: size})
	}

	sortPlan(plan)
	return plan
}

// PlanUp builds the upload task list: every local path is a candidate,
// skipping only when the remote listing already reports the same byte size.
// A remote entry whose size probe failed during enumeration never matches.
func PlanUp(local mapset.Set[string], localRoot string, tree RemoteTree) *Plan {
	plan := &Plan{}

	for _, rel := range local.ToSlice() {
		srcSize, class := probeLocalSize(filepath.Join(localRoot, filepath.FromSlash(rel)))
		if class != ProbeFound {
			// Still emit the task; the transfer will surface the real error
			// as a failed outcome instead of silently dropping the path.
			slog.Warn("local source probe failed", "path", rel, "class", class)
			srcSize = -1
		}

		if remoteSize, ok := tree[rel]; ok && srcSize >= 0 && remoteSize == srcSize {
			plan.Skipped = append(plan.Skipped, rel)
			continue
		}

		plan.Tasks = append(plan.Tasks, &Task{Path: rel, Size: srcSize})
	}

	sortPlan(plan)
	return plan
}

// sortPlan keeps plans deterministic for logs and tests. Execution order
// still carries no guarantees once the pool takes over.
func sortPlan(p *Plan) {
	sort.Slice(p.Tasks, func(i, j int) bool { return p.Tasks[i].Path < p.Tasks[j].Path })
	sort.Strings(p.Skipped)
}
