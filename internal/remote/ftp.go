package remote

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

const dialTimeout = 30 * time.Second

// FTPDialer dials and authenticates FTP sessions, then positions them at
// RootDir so all subsequent paths are relative to the sync root.
type FTPDialer struct {
	Addr     string // host:port
	User     string
	Password string
	RootDir  string
}

func (d *FTPDialer) Dial(ctx context.Context) (Endpoint, error) {
	conn, err := ftp.Dial(d.Addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(dialTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", d.Addr, err)
	}

	if err := conn.Login(d.User, d.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("authenticate %q@%q: %w", d.User, d.Addr, err)
	}

	if d.RootDir != "" {
		if err := conn.ChangeDir(d.RootDir); err != nil {
			_ = conn.Quit()
			return nil, fmt.Errorf("enter remote root %q: %w", d.RootDir, err)
		}
	}

	return &ftpEndpoint{conn: conn}, nil
}

// ftpEndpoint adapts a jlaffaye/ftp server connection to the Endpoint
// interface. Not safe for concurrent use, matching the one-owner contract.
type ftpEndpoint struct {
	conn *ftp.ServerConn
}

func (e *ftpEndpoint) ChangeDir(path string) error {
	return e.conn.ChangeDir(path)
}

func (e *ftpEndpoint) CurrentDir() (string, error) {
	return e.conn.CurrentDir()
}

func (e *ftpEndpoint) List(path string) ([]string, error) {
	return e.conn.NameList(path)
}

func (e *ftpEndpoint) Size(path string) (int64, error) {
	return e.conn.FileSize(path)
}

func (e *ftpEndpoint) Fetch(path string) (io.ReadCloser, error) {
	return e.conn.Retr(path)
}

func (e *ftpEndpoint) Store(path string, r io.Reader) error {
	return e.conn.Stor(path, r)
}

func (e *ftpEndpoint) MakeDir(path string) error {
	return e.conn.MakeDir(path)
}

func (e *ftpEndpoint) Close() error {
	return e.conn.Quit()
}
