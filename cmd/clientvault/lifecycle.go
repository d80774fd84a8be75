package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hussein-Mazeh/clientvault/internal/session"
)

var lifecycleSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// watchLifecycle locks the vault and releases the store as soon as the
// process is interrupted, before it exits. The command context is cancelled
// by the same signals, so a backup that has not started replacing files
// aborts on its own.
func (a *app) watchLifecycle() (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, lifecycleSignals...)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			a.interrupt()
			fmt.Fprintf(os.Stderr, "\n%s: vault locked\n", sig)
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// exclusive runs fn with the store files reserved. An interrupt waits for fn
// to return.
func (a *app) exclusive(fn func() error) error {
	a.critical.Lock()
	defer a.critical.Unlock()
	return fn()
}

// interrupt locks the vault once no exclusive step is running. The
// reservation is kept: the process is about to exit and nothing may start
// touching the store again.
func (a *app) interrupt() {
	a.critical.Lock()
	a.lifecycle(session.Background)
}
