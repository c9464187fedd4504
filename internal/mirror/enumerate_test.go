package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateRemote_WalksTree(t *testing.T) {
	srv := newMemServer()
	srv.addFile("/pub/a.txt", make([]byte, 100))
	srv.addFile("/pub/b/c.txt", make([]byte, 50))
	srv.addFile("/pub/b/d/e.txt", make([]byte, 7))
	srv.addDir("/pub/empty")

	dialer := &memDialer{srv: srv, root: "/pub"}
	ep, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer ep.Close()

	tree, err := EnumerateRemote(context.Background(), ep)
	require.NoError(t, err)

	assert.Equal(t, RemoteTree{
		"a.txt":     100,
		"b/c.txt":   50,
		"b/d/e.txt": 7,
	}, tree)
}

func TestEnumerateRemote_RestoresWorkingDirectory(t *testing.T) {
	srv := newMemServer()
	srv.addFile("/pub/b/d/e.txt", []byte("x"))

	dialer := &memDialer{srv: srv, root: "/pub"}
	ep, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer ep.Close()

	_, err = EnumerateRemote(context.Background(), ep)
	require.NoError(t, err)

	cwd, err := ep.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/pub", cwd)
}

func TestEnumerateRemote_SkipsDeniedSubtreeAndKeepsSiblings(t *testing.T) {
	srv := newMemServer()
	srv.addFile("/pub/visible.txt", []byte("ok"))
	srv.addFile("/pub/secret/hidden.txt", []byte("no"))
	srv.addFile("/pub/sib/kept.txt", []byte("yes"))
	srv.denied["/pub/secret"] = true

	dialer := &memDialer{srv: srv, root: "/pub"}
	ep, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer ep.Close()

	tree, err := EnumerateRemote(context.Background(), ep)
	require.NoError(t, err)

	assert.Contains(t, tree, "visible.txt")
	assert.Contains(t, tree, "sib/kept.txt")
	assert.NotContains(t, tree, "secret/hidden.txt")
}

func TestEnumerateRemote_RecordsUnknownSizeOnProbeFailure(t *testing.T) {
	srv := newMemServer()
	srv.addFile("/pub/flaky.txt", []byte("boo"))
	srv.addFile("/pub/ok.txt", []byte("fine!"))
	srv.failSize["/pub/flaky.txt"] = true

	dialer := &memDialer{srv: srv, root: "/pub"}
	ep, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer ep.Close()

	tree, err := EnumerateRemote(context.Background(), ep)
	require.NoError(t, err)

	// unknown size is recorded, not dropped, so the file still transfers
	assert.Equal(t, int64(-1), tree["flaky.txt"])
	assert.Equal(t, int64(5), tree["ok.txt"])
}

func TestEnumerateLocal(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "a.txt", "aaa")
	writeLocal(t, root, "b/c.txt", "ccc")
	writeLocal(t, root, "old/stale.txt", "zzz")       // top-level quarantine: pruned
	writeLocal(t, root, "nested/old/kept.txt", "yyy") // deeper "old": walked

	files, err := EnumerateLocal(context.Background(), root, QuarantineDirName)
	require.NoError(t, err)

	assert.True(t, files.Contains("a.txt"))
	assert.True(t, files.Contains("b/c.txt"))
	assert.True(t, files.Contains("nested/old/kept.txt"))
	assert.False(t, files.Contains("old/stale.txt"))
	assert.Equal(t, 3, files.Cardinality())
}

func TestEnumerateLocal_EmptyRoot(t *testing.T) {
	files, err := EnumerateLocal(context.Background(), t.TempDir(), QuarantineDirName)
	require.NoError(t, err)
	assert.Equal(t, 0, files.Cardinality())
}

func writeLocal(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}
