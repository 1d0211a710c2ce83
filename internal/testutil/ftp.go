package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"sort"
	"strings"
	"sync"
)

// FakeFTPServer is an in-memory FTP server. Connections dialed from it share
// one file tree and record every command they receive.
type FakeFTPServer struct {
	mu       sync.Mutex
	dirs     map[string]bool
	files    map[string][]byte
	commands []string
	dials    int
	quits    int

	// SizeUnsupported makes SIZE answer 502, as some servers do.
	SizeUnsupported bool
	// DialErr is returned by Dial when set.
	DialErr error
	// StorErr is returned by STOR when set.
	StorErr error
}

func NewFakeFTPServer() *FakeFTPServer {
	return &FakeFTPServer{
		dirs:  map[string]bool{"/": true},
		files: map[string][]byte{},
	}
}

func ReplyError(code int, msg string) error {
	return &textproto.Error{Code: code, Msg: msg}
}

// Dial opens a logged-in connection rooted at "/".
func (s *FakeFTPServer) Dial(ctx context.Context) (*FakeFTPConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DialErr != nil {
		return nil, s.DialErr
	}
	s.dials++
	return &FakeFTPConn{server: s, cwd: "/"}, nil
}

func (s *FakeFTPServer) record(format string, args ...interface{}) {
	s.commands = append(s.commands, fmt.Sprintf(format, args...))
}

func (s *FakeFTPServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.commands...)
}

// CountCommand counts recorded commands starting with verb.
func (s *FakeFTPServer) CountCommand(verb string) int {
	n := 0
	for _, c := range s.Commands() {
		if c == verb || strings.HasPrefix(c, verb+" ") {
			n++
		}
	}
	return n
}

// Sessions reports how many connections were dialed and how many quit.
func (s *FakeFTPServer) Sessions() (dials, quits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials, s.quits
}

func (s *FakeFTPServer) HasDir(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[path.Clean("/"+p)]
}

// File returns the content stored at absolute or root-relative path p.
func (s *FakeFTPServer) File(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path.Clean("/"+p)]
	return data, ok
}

func (s *FakeFTPServer) PutFile(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = path.Clean("/" + p)
	for d := path.Dir(p); ; d = path.Dir(d) {
		s.dirs[d] = true
		if d == "/" {
			break
		}
	}
	s.files[p] = append([]byte{}, data...)
}

// FakeFTPConn is one session against a FakeFTPServer.
type FakeFTPConn struct {
	server *FakeFTPServer
	cwd    string
	closed bool
}

func (c *FakeFTPConn) resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean(path.Join(c.cwd, p))
}

func (c *FakeFTPConn) ChangeDir(p string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CWD %s", p)

	target := c.resolve(p)
	if !s.dirs[target] {
		return ReplyError(550, p+": No such file or directory")
	}
	c.cwd = target
	return nil
}

func (c *FakeFTPConn) MakeDir(p string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("MKD %s", p)

	target := c.resolve(p)
	if s.dirs[target] {
		return ReplyError(550, p+": File exists")
	}
	if !s.dirs[path.Dir(target)] {
		return ReplyError(550, p+": No such file or directory")
	}
	s.dirs[target] = true
	return nil
}

func (c *FakeFTPConn) Stor(p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("STOR %s", p)

	if s.StorErr != nil {
		return s.StorErr
	}
	target := c.resolve(p)
	if !s.dirs[path.Dir(target)] {
		return ReplyError(553, p+": Could not create file")
	}
	s.files[target] = data
	return nil
}

func (c *FakeFTPConn) Retr(p string) (io.ReadCloser, error) {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("RETR %s", p)

	data, ok := s.files[c.resolve(p)]
	if !ok {
		return nil, ReplyError(550, p+": No such file or directory")
	}
	return io.NopCloser(bytes.NewReader(append([]byte{}, data...))), nil
}

func (c *FakeFTPConn) FileSize(p string) (int64, error) {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("SIZE %s", p)

	if s.SizeUnsupported {
		return 0, ReplyError(502, "SIZE not implemented")
	}
	data, ok := s.files[c.resolve(p)]
	if !ok {
		return 0, ReplyError(550, p+": No such file or directory")
	}
	return int64(len(data)), nil
}

func (c *FakeFTPConn) NameList(p string) ([]string, error) {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("NLST %s", p)

	dir := c.resolve(p)
	if !s.dirs[dir] {
		return nil, ReplyError(550, p+": No such file or directory")
	}
	var names []string
	for f := range s.files {
		if path.Dir(f) == dir {
			names = append(names, path.Join(p, path.Base(f)))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (c *FakeFTPConn) Delete(p string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("DELE %s", p)

	target := c.resolve(p)
	if _, ok := s.files[target]; !ok {
		return ReplyError(550, p+": No such file or directory")
	}
	delete(s.files, target)
	return nil
}

func (c *FakeFTPConn) Quit() error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("QUIT")

	if c.closed {
		return fmt.Errorf("connection already closed")
	}
	c.closed = true
	s.quits++
	return nil
}
