package sftpstore

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/pkg/sftp"

	"github.com/bacalhau-project/remotestore/pkg/storage"
)

// SFTP v3 status codes (draft-ietf-secsh-filexfer-02, section 7).
const (
	fxNoSuchFile       = 2
	fxPermissionDenied = 3
	fxNoConnection     = 6
	fxConnectionLost   = 7
)

func classify(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return storage.NewError(kindOf(err), op, id, err)
}

func kindOf(err error) storage.Kind {
	var statusErr *sftp.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case fxNoSuchFile:
			return storage.KindNotFound
		case fxPermissionDenied:
			return storage.KindPermission
		case fxNoConnection, fxConnectionLost:
			return storage.KindTransport
		default:
			return storage.KindProtocol
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return storage.KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return storage.KindPermission
	}
	return storage.KindTransport
}

func isNotFound(err error) bool {
	return kindOf(err) == storage.KindNotFound
}

func classifyHandshake(err error) error {
	kind := storage.KindTransport
	if strings.Contains(err.Error(), "unable to authenticate") {
		kind = storage.KindAuth
	}
	return storage.NewError(kind, "dial", "", err)
}
