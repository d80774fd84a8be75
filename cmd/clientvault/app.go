package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Hussein-Mazeh/clientvault/internal/backup"
	"github.com/Hussein-Mazeh/clientvault/internal/bio"
	"github.com/Hussein-Mazeh/clientvault/internal/config"
	"github.com/Hussein-Mazeh/clientvault/internal/db"
	"github.com/Hussein-Mazeh/clientvault/internal/logging"
	"github.com/Hussein-Mazeh/clientvault/internal/secretref"
	"github.com/Hussein-Mazeh/clientvault/internal/service"
	"github.com/Hussein-Mazeh/clientvault/internal/session"
)

// annotationOptionalConfig marks commands that may run before --config exists.
const annotationOptionalConfig = "clientvault/optional-config"

// app carries the per-process state shared by every command. The session
// and store are opened on first use.
type app struct {
	configFile string
	cfg        config.Config
	log        *zap.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	reader *bufio.Reader

	auth            bio.Authenticator
	copyToClipboard func(string) error

	mu      sync.Mutex
	sess    *session.Session
	records *db.DB

	// critical is held while backup steps read or replace store files.
	critical sync.Mutex
}

func newApp() *app {
	return &app{
		log:             zap.NewNop(),
		copyToClipboard: clipboard.WriteAll,
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	cfgFile := a.configFile
	if cfgFile != "" && cmd.Annotations[annotationOptionalConfig] == "true" {
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			cfgFile = ""
		}
	}

	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return userError{msg: err.Error()}
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return userError{msg: err.Error()}
	}

	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) session() (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sess != nil {
		return a.sess, nil
	}

	secrets, err := secretref.Open(a.cfg.Secrets.Backend, a.cfg.Secrets.Service)
	if err != nil {
		return nil, fmt.Errorf("open secret store: %w", err)
	}

	auth := a.auth
	if auth == nil && a.cfg.Biometric {
		auth = bio.Default()
	}

	sess, err := session.Open(secrets, auth, a.log)
	if err != nil {
		return nil, err
	}
	a.sess = sess
	return sess, nil
}

func (a *app) store() *db.DB {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.records == nil {
		a.records = db.New(a.cfg.Paths().DatabasePath(), a.log)
	}
	return a.records
}

func (a *app) backupEngine() *backup.Engine {
	return backup.New(a.store(), a.cfg.Backup.Prefix, a.log)
}

// unlock returns an unlocked session, trying biometrics first when enabled.
func (a *app) unlock(ctx context.Context) (*session.Session, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}

	switch sess.State() {
	case session.Unlocked:
		return sess, nil
	case session.Uninitialized:
		return nil, userError{msg: "no master password set; run clientvault setup first"}
	}

	if a.cfg.Biometric {
		err := sess.BiometricUnlock(ctx)
		if err == nil {
			return sess, nil
		}
		a.log.Info("biometric unlock failed, falling back to password", zap.Error(err))
	}

	pw, err := a.promptSecret("Master password: ")
	if err != nil {
		return nil, err
	}
	if err := sess.Unlock(pw); err != nil {
		return nil, err
	}
	return sess, nil
}

func (a *app) service(ctx context.Context) (*service.Service, error) {
	sess, err := a.unlock(ctx)
	if err != nil {
		return nil, err
	}
	return service.New(sess, a.store(), a.log), nil
}

// lifecycle forwards a host event to the session. Leaving the foreground
// also releases the store handle.
func (a *app) lifecycle(ev session.Event) {
	a.mu.Lock()
	sess, records := a.sess, a.records
	a.mu.Unlock()

	if sess != nil {
		sess.HandleLifecycle(ev)
	}
	if ev != session.Active && records != nil && records.IsOpen() {
		if err := records.Close(); err != nil {
			a.log.Warn("close record store", zap.Error(err))
			return
		}
		a.log.Debug("record store released", zap.Stringer("event", ev))
	}
}

func (a *app) close() {
	a.lifecycle(session.Suspend)
	_ = a.log.Sync()
}

func (a *app) lineReader() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	return a.reader
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	line, err := a.lineReader().ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads without echo when stdin is a terminal.
func (a *app) promptSecret(prompt string) (string, error) {
	f, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.readLine(prompt)
	}

	fmt.Fprint(a.errOut, prompt)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(pw), nil
}

func (a *app) confirm(prompt string) (bool, error) {
	answer, err := a.readLine(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
