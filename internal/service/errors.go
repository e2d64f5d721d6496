package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/expenseshare/internal/ledger"
)

// toConnectError maps ledger error kinds to Connect codes. Anything that is
// not a ledger error is an internal failure.
func toConnectError(err error) error {
	if errors.Is(err, ledger.ErrUnauthenticated) {
		return connect.NewError(connect.CodeUnauthenticated, err)
	}
	switch ledger.KindOf(err) {
	case ledger.KindAuth:
		return connect.NewError(connect.CodePermissionDenied, err)
	case ledger.KindNotFound:
		return connect.NewError(connect.CodeNotFound, err)
	case ledger.KindValidation:
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
