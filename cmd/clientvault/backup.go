package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/clientvault/internal/backup"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the whole vault store",
	}
	cmd.AddCommand(newBackupExportCmd(a), newBackupImportCmd(a))
	return cmd
}

func newBackupExportCmd(a *app) *cobra.Command {
	var asBase64 bool
	cmd := &cobra.Command{
		Use:   "export [dest]",
		Short: "Write a snapshot of the store to dest (a file or directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.unlock(cmd.Context()); err != nil {
				return err
			}

			dest := a.cfg.Backup.Dir
			if len(args) == 1 {
				dest = args[0]
			}
			if !cmd.Flags().Changed("base64") {
				asBase64 = a.cfg.Backup.Base64
			}
			enc := backup.Raw
			if asBase64 {
				enc = backup.Base64
			}

			var art backup.Artifact
			err := a.exclusive(func() (err error) {
				art, err = a.backupEngine().Export(cmd.Context(), dest, enc)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "backup written to %s (%d bytes, %s)\n", art.Path, art.Size, art.Encoding)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asBase64, "base64", false, "base64-encode the snapshot (default from config)")
	return cmd
}

func newBackupImportCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store with a snapshot; clientvault must be restarted afterwards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.unlock(cmd.Context()); err != nil {
				return err
			}

			if !yes {
				ok, err := a.confirm("This replaces every record in the vault. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.out, "aborted")
					return nil
				}
			}

			var res backup.Result
			err := a.exclusive(func() (err error) {
				res, err = a.backupEngine().Import(cmd.Context(), args[0])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "vault restored from %s (%d bytes)\n", args[0], res.Size)
			if res.RestartRequired {
				fmt.Fprintln(a.out, "restart clientvault to use the restored vault")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
