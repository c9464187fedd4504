package mirror

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/textproto"
	"path"
	"strings"
	"sync"

	"github.com/mirrorkit/mirrorkit/internal/remote"
)

// memServer is a shared in-memory remote tree. Sessions hold their own
// working directory against it, mimicking FTP semantics: ChangeDir is
// rejected on anything that is not a directory, listings return bare names
// with no type metadata, and MakeDir on an existing path is an error.
type memServer struct {
	mu      sync.Mutex
	files   map[string][]byte // keyed by clean absolute path
	dirs    map[string]bool
	denied   map[string]bool // dirs whose listing is rejected
	badRead  map[string]bool // files whose fetch fails mid-stream
	failSize map[string]bool // files whose size probe fails
	fetches map[string]int
	dials   int
	open    int
	peak    int
}

func newMemServer() *memServer {
	return &memServer{
		files:   make(map[string][]byte),
		dirs:    map[string]bool{"/": true},
		denied:   make(map[string]bool),
		badRead:  make(map[string]bool),
		failSize: make(map[string]bool),
		fetches: make(map[string]int),
	}
}

func (s *memServer) addDir(abs string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDirLocked(abs)
}

func (s *memServer) addDirLocked(abs string) {
	abs = path.Clean(abs)
	for d := abs; d != "/" && d != "."; d = path.Dir(d) {
		s.dirs[d] = true
	}
}

func (s *memServer) addFile(abs string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	abs = path.Clean(abs)
	s.addDirLocked(path.Dir(abs))
	s.files[abs] = data
}

func (s *memServer) hasFile(abs string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path.Clean(abs)]
	return ok
}

func (s *memServer) fileContent(abs string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[path.Clean(abs)]
}

func (s *memServer) fetchCount(abs string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[path.Clean(abs)]
}

func (s *memServer) stats() (dials, peak int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials, s.peak
}

// memDialer hands out fresh sessions rooted at root, like the FTP dialer.
type memDialer struct {
	srv      *memServer
	root     string
	failDial bool
}

func (d *memDialer) Dial(ctx context.Context) (remote.Endpoint, error) {
	if d.failDial {
		return nil, errors.New("dial refused")
	}

	d.srv.mu.Lock()
	d.srv.dials++
	d.srv.open++
	if d.srv.open > d.srv.peak {
		d.srv.peak = d.srv.open
	}
	d.srv.mu.Unlock()

	conn := &memConn{srv: d.srv, cwd: "/"}
	if d.root != "" {
		if err := conn.ChangeDir(d.root); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

type memConn struct {
	srv *memServer
	cwd string
}

func protoErr(code int, msg string) error {
	return &textproto.Error{Code: code, Msg: msg}
}

func (c *memConn) resolve(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = path.Join(c.cwd, p)
	}
	return path.Clean(p)
}

func (c *memConn) ChangeDir(p string) error {
	abs := c.resolve(p)
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if !c.srv.dirs[abs] {
		return protoErr(550, "failed to change directory")
	}
	c.cwd = abs
	return nil
}

func (c *memConn) CurrentDir() (string, error) {
	return c.cwd, nil
}

func (c *memConn) List(p string) ([]string, error) {
	abs := c.resolve(p)
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()

	if c.srv.denied[abs] {
		return nil, protoErr(550, "permission denied")
	}
	if !c.srv.dirs[abs] {
		return nil, protoErr(550, "not a directory")
	}

	names := []string{".", ".."}
	seen := map[string]bool{}
	for f := range c.srv.files {
		if path.Dir(f) == abs && !seen[path.Base(f)] {
			names = append(names, path.Base(f))
			seen[path.Base(f)] = true
		}
	}
	for d := range c.srv.dirs {
		if d != "/" && path.Dir(d) == abs && !seen[path.Base(d)] {
			names = append(names, path.Base(d))
			seen[path.Base(d)] = true
		}
	}
	return names, nil
}

func (c *memConn) Size(p string) (int64, error) {
	abs := c.resolve(p)
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if c.srv.failSize[abs] {
		return 0, protoErr(421, "service not available")
	}
	data, ok := c.srv.files[abs]
	if !ok {
		return 0, protoErr(550, "could not get file size")
	}
	return int64(len(data)), nil
}

func (c *memConn) Fetch(p string) (io.ReadCloser, error) {
	abs := c.resolve(p)
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()

	c.srv.fetches[abs]++
	data, ok := c.srv.files[abs]
	if !ok {
		return nil, protoErr(550, "no such file")
	}
	if c.srv.badRead[abs] {
		return io.NopCloser(&brokenReader{}), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *memConn) Store(p string, r io.Reader) error {
	abs := c.resolve(p)

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if !c.srv.dirs[path.Dir(abs)] {
		return protoErr(550, "no such directory")
	}
	c.srv.files[abs] = data
	return nil
}

func (c *memConn) MakeDir(p string) error {
	abs := c.resolve(p)
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()

	if c.srv.dirs[abs] {
		return protoErr(550, "create directory operation failed: exists")
	}
	if _, isFile := c.srv.files[abs]; isFile {
		return protoErr(550, "create directory operation failed: exists")
	}
	if !c.srv.dirs[path.Dir(abs)] {
		return protoErr(550, "no such parent directory")
	}
	c.srv.dirs[abs] = true
	return nil
}

func (c *memConn) Close() error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	c.srv.open--
	return nil
}

type brokenReader struct{}

func (*brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset mid-transfer")
}
