package ftpstore

import (
	"errors"
	"net/textproto"
	"strings"

	"github.com/bacalhau-project/remotestore/pkg/storage"
)

// FTP reply codes the store interprets.
const (
	replySyntaxError        = 500
	replyNotImplemented     = 502
	replyParamNotImpl       = 504
	replyNotLoggedIn        = 530
	replyNeedAccount        = 532
	replyFileUnavailable    = 550
	replyStorageExceeded    = 552
	replyFileNameNotAllowed = 553
)

func replyCode(err error) int {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code
	}
	return 0
}

// isPermanent reports a 5xx (permanent negative completion) reply.
func isPermanent(err error) bool {
	code := replyCode(err)
	return code >= 500 && code < 600
}

func isUnsupported(err error) bool {
	switch replyCode(err) {
	case replySyntaxError, replyNotImplemented, replyParamNotImpl:
		return true
	}
	return false
}

func classify(op, id string, err error) error {
	if err == nil {
		return nil
	}

	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		return storage.NewError(storage.KindTransport, op, id, err)
	}

	kind := storage.KindProtocol
	switch tpErr.Code {
	case replyNotLoggedIn, replyNeedAccount:
		kind = storage.KindAuth
	case replyFileUnavailable:
		kind = storage.KindNotFound
		if mentionsPermission(tpErr.Msg) {
			kind = storage.KindPermission
		}
	case replyStorageExceeded, replyFileNameNotAllowed:
		kind = storage.KindPermission
	}
	return storage.NewError(kind, op, id, err)
}

func mentionsPermission(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "permission") ||
		strings.Contains(msg, "denied") ||
		strings.Contains(msg, "not allowed")
}
