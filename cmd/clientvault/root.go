package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clientvault",
		Short: "Offline vault for per-client platform credentials",
		Long: `clientvault keeps client platform logins in a local encrypted store.

Passwords are sealed with a key derived from the master password; the whole
store can be exported to a single backup file and restored from it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is <user config dir>/clientvault/clientvault.yaml or ./clientvault.yaml)")
	pf.String("data-dir", "", "directory holding the vault store")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.Bool("biometric", false, "try biometric unlock before asking for the master password")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError{msg: err.Error()}
	})

	cmd.AddCommand(
		newSetupCmd(a),
		newStatusCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newGenerateCmd(a),
		newBackupCmd(a),
		newConfigCmd(a),
	)
	return cmd
}
