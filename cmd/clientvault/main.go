package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
)

var version = "dev"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

// userFacing errors are reported without the "unexpected error" prefix.
var userFacing = []error{
	common.ErrAuthentication,
	common.ErrDecryption,
	common.ErrBackupIntegrity,
	common.ErrLocked,
	common.ErrNotInitialized,
	common.ErrAlreadyInitialized,
	common.ErrNotFound,
	common.ErrInvalidInput,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), lifecycleSignals...)
	a := newApp()
	stop := a.watchLifecycle()

	err := newRootCmd(a).ExecuteContext(ctx)

	stop()
	cancel()
	a.close()
	handleError(err)
}

func handleError(err error) {
	if err == nil {
		return
	}

	if isUserError(err) {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

func isUserError(err error) bool {
	var uerr userError
	if errors.As(err, &uerr) {
		return true
	}
	for _, target := range userFacing {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
