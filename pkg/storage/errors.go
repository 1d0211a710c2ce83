package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kind classifies a failure independently of the transport library.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindAuth
	KindNotFound
	KindPermission
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is returned by every store operation that fails.
type Error struct {
	Kind Kind
	Op   string
	ID   string
	Err  error
}

var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrPermission = &Error{Kind: KindPermission}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrTransport  = &Error{Kind: KindTransport}

	// ErrInvalidID is wrapped by errors for ids that are not a plain file name.
	ErrInvalidID = errors.New("id must be a plain file name")
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s %q", msg, e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels above, e.g. errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.ID == "" && t.Err == nil && t.Kind == e.Kind
}

// NewError wraps err unless it is already a *Error.
func NewError(kind Kind, op, id string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// KindOf reports the kind of err, or 0 when err did not come from a store.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// CheckID rejects ids that would resolve to dir itself or outside it.
func CheckID(op, id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return &Error{Kind: KindProtocol, Op: op, ID: id, Err: ErrInvalidID}
	}
	return nil
}

// SourceError wraps a failure to open or read an upload source.
func SourceError(op, id string, err error) error {
	kind := KindTransport
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermission
	}
	return NewError(kind, op, id, err)
}
