package mirror

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mirrorkit/mirrorkit/internal/remote"
)

// EnumerateRemote walks the remote hierarchy below the session's working
// directory and returns every file path found, with sizes.
//
// The endpoint's listing carries no type metadata, so each entry is
// classified with a ChangeDir probe: traversable means directory, a
// permission-style rejection means file. A rejection while listing a subtree
// skips that subtree only; siblings keep going. Callers must treat the
// result as a set, not an ordered sequence.
func EnumerateRemote(ctx context.Context, ep remote.Endpoint) (RemoteTree, error) {
	tree := make(RemoteTree)
	if err := walkRemote(ctx, ep, "", tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// walkRemote recurses into the directory the session currently occupies.
// prefix is that directory's relative path from the sync root.
func walkRemote(ctx context.Context, ep remote.Endpoint, prefix string, tree RemoteTree) error {
	names, err := ep.List(".")
	if err != nil {
		slog.Warn("remote list rejected, skipping subtree", "path", prefix, "error", err)
		return nil
	}

	for _, raw := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := cleanName(raw)
		if name == "" {
			continue
		}

		rel := path.Join(prefix, name)

		if err := ep.ChangeDir(name); err == nil {
			// Traversable, so it's a directory. Strict push/pop: descend one
			// level, then come back up before touching siblings.
			if err := walkRemote(ctx, ep, rel, tree); err != nil {
				return err
			}
			if err := ep.ChangeDir(".."); err != nil {
				return fmt.Errorf("restore working directory above %q: %w", rel, err)
			}
			continue
		}

		// The enter probe was rejected: treat the entry as a file.
		size, err := ep.Size(name)
		if err != nil {
			slog.Warn("remote size probe failed", "path", rel, "class", classifyProbeErr(err), "error", err)
			size = -1
		}
		tree[rel] = size
	}

	return nil
}

// EnumerateLocal walks the local root and returns the set of file paths
// below it, relative and slash-normalized. The quarantine directory is
// pruned at the top level only; a same-named directory deeper in the tree
// is still walked.
func EnumerateLocal(ctx context.Context, root string, quarantineDir string) (mapset.Set[string], error) {
	files := mapset.NewSet[string]()

	walkFn := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = normalizeRel(filepath.ToSlash(rel))

		if d.IsDir() {
			if rel == quarantineDir {
				return filepath.SkipDir
			}
			return nil
		}

		if rel != "" {
			files.Add(rel)
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("walk local root %q: %w", root, err)
	}

	return files, nil
}
