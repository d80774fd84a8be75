package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/clientvault/auth"
	"github.com/Hussein-Mazeh/clientvault/internal/bio"
)

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Set the master password (once)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if sess.HasMasterPassword() {
				return userError{msg: "master password already set"}
			}

			pw, err := a.promptSecret("New master password: ")
			if err != nil {
				return err
			}
			confirm, err := a.promptSecret("Confirm master password: ")
			if err != nil {
				return err
			}
			if pw != confirm {
				return userError{msg: "passwords do not match"}
			}

			if err := auth.ValidateMasterPassword(pw, a.cfg.Password.MinLength); err != nil {
				return err
			}
			s := auth.Estimate(pw)
			fmt.Fprintf(a.out, "strength: %s (estimated crack time %s)\n", s.Label(), s.CrackTime)

			if err := sess.Setup(pw); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "master password set; the vault is locked")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the vault lives and whether it is set up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}

			dbPath := a.cfg.Paths().DatabasePath()
			storeInfo := "not created"
			if info, err := os.Stat(dbPath); err == nil {
				storeInfo = fmt.Sprintf("%d bytes", info.Size())
			} else if !errors.Is(err, os.ErrNotExist) {
				storeInfo = err.Error()
			}

			fmt.Fprintf(a.out, "data dir:  %s\n", a.cfg.DataDir)
			fmt.Fprintf(a.out, "store:     %s (%s)\n", dbPath, storeInfo)
			fmt.Fprintf(a.out, "secrets:   %s (service %s)\n", a.cfg.Secrets.Backend, a.cfg.Secrets.Service)
			fmt.Fprintf(a.out, "state:     %s\n", sess.State())
			fmt.Fprintf(a.out, "biometric: %s\n", a.biometricStatus())
			return nil
		},
	}
}

func (a *app) biometricStatus() string {
	if !a.cfg.Biometric {
		return "disabled"
	}
	authenticator := a.auth
	if authenticator == nil {
		authenticator = bio.Default()
	}
	if authenticator.Available() {
		return "enabled"
	}
	return "enabled, unavailable on this device"
}
