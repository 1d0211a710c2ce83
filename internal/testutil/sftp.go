package testutil

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/pkg/sftp"
)

// SFTPServer serves one in-memory file tree to any number of pipe-connected
// clients, one request server per client.
type SFTPServer struct {
	handlers sftp.Handlers
	cmds     *recordingCmder

	mu    sync.Mutex
	dials int
	wg    sync.WaitGroup

	// DialErr is returned by Dial when set.
	DialErr error
}

func NewSFTPServer() *SFTPServer {
	h := sftp.InMemHandler()
	cmds := &recordingCmder{FileCmder: h.FileCmd}
	h.FileCmd = cmds
	return &SFTPServer{handlers: h, cmds: cmds}
}

// Dial connects a new client. Closing the client ends its server goroutine.
func (s *SFTPServer) Dial(ctx context.Context) (*sftp.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.DialErr != nil {
		return nil, s.DialErr
	}

	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, s.handlers)

	s.mu.Lock()
	s.dials++
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := server.Serve(); err != nil && err != io.EOF {
			_ = server.Close()
		}
	}()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		_ = clientConn.Close()
		return nil, fmt.Errorf("failed to start sftp client: %w", err)
	}
	return client, nil
}

func (s *SFTPServer) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Wait blocks until every served client has disconnected.
func (s *SFTPServer) Wait() {
	s.wg.Wait()
}

// Methods returns the file commands (Mkdir, Remove, ...) seen so far.
func (s *SFTPServer) Methods() []string {
	return s.cmds.methods()
}

func (s *SFTPServer) CountMethod(method string) int {
	n := 0
	for _, m := range s.Methods() {
		if m == method {
			n++
		}
	}
	return n
}

type recordingCmder struct {
	sftp.FileCmder

	mu   sync.Mutex
	seen []string
}

func (r *recordingCmder) Filecmd(req *sftp.Request) error {
	r.mu.Lock()
	r.seen = append(r.seen, req.Method)
	r.mu.Unlock()
	return r.FileCmder.Filecmd(req)
}

func (r *recordingCmder) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.seen...)
}
