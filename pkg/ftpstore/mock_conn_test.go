package ftpstore

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockConn is a testify mock of Conn.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) ChangeDir(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockConn) MakeDir(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockConn) Stor(path string, r io.Reader) error {
	return m.Called(path, r).Error(0)
}

func (m *MockConn) Retr(path string) (io.ReadCloser, error) {
	args := m.Called(path)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConn) FileSize(path string) (int64, error) {
	args := m.Called(path)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConn) NameList(path string) ([]string, error) {
	args := m.Called(path)
	if names, ok := args.Get(0).([]string); ok {
		return names, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConn) Delete(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockConn) Quit() error {
	return m.Called().Error(0)
}

func mockDialer(conn *MockConn) Dialer {
	return DialerFunc(func(ctx context.Context) (Conn, error) {
		return conn, nil
	})
}
