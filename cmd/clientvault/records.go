package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/clientvault/auth"
	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/internal/service"
)

type credentialFlags struct {
	client   string
	platform string
	username string
	notes    string
	generate bool
	length   int
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.client, "client", "", "client name")
	cmd.Flags().StringVar(&f.platform, "platform", "", "platform or service name")
	cmd.Flags().StringVar(&f.username, "username", "", "login on the platform")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().BoolVar(&f.generate, "generate", false, "generate a random password instead of prompting")
	cmd.Flags().IntVar(&f.length, "length", 0, "generated password length (default from config)")
}

// newPassword generates or prompts (with confirmation) for a password.
func (a *app) newPassword(f credentialFlags) (string, error) {
	if f.generate {
		length := f.length
		if length <= 0 {
			length = a.cfg.Password.GenerateLength
		}
		pw, err := auth.GeneratePassword(length)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(a.out, "generated a %d-character password\n", len(pw))
		return pw, nil
	}

	pw, err := a.promptSecret("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := a.promptSecret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", userError{msg: "passwords do not match"}
	}
	if pw == "" {
		return "", userError{msg: "password cannot be empty"}
	}
	return pw, nil
}

func (a *app) askIfEmpty(value *string, prompt string) error {
	if strings.TrimSpace(*value) != "" {
		return nil
	}
	v, err := a.readLine(prompt)
	if err != nil {
		return err
	}
	*value = v
	return nil
}

func newAddCmd(a *app) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			for _, q := range []struct {
				v      *string
				prompt string
			}{
				{&f.client, "Client: "},
				{&f.platform, "Platform: "},
				{&f.username, "Username: "},
			} {
				if err := a.askIfEmpty(q.v, q.prompt); err != nil {
					return err
				}
			}

			pw, err := a.newPassword(f)
			if err != nil {
				return err
			}
			if s := auth.Estimate(pw, f.client, f.platform, f.username); s.Score < 3 {
				fmt.Fprintf(a.errOut, "warning: password strength is %s\n", s.Label())
			}

			id, err := svc.Add(cmd.Context(), service.Credential{
				ClientName: f.client,
				Platform:   f.platform,
				Username:   f.username,
				Password:   pw,
				Notes:      f.notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "stored credential for %s/%s (id=%d)\n", strings.TrimSpace(f.client), strings.TrimSpace(f.platform), id)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls", "search"},
		Short:   "List credentials whose client or platform matches query",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			var rows []service.Revealed
			if reveal {
				rows, err = svc.RevealAll(cmd.Context(), query)
				if err != nil {
					return err
				}
			} else {
				recs, err := svc.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				for _, r := range recs {
					rows = append(rows, service.Revealed{Record: r})
				}
			}

			total, err := svc.Count(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintf(a.out, "no records (%d in vault)\n", total)
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			header := "ID\tCLIENT\tPLATFORM\tUSERNAME\tCREATED"
			if reveal {
				header += "\tPASSWORD"
			}
			fmt.Fprintln(tw, header)
			for _, row := range rows {
				r := row.Record
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s", r.ID, r.ClientName, r.Platform, r.Username, r.CreatedAt.Local().Format("2006-01-02"))
				switch {
				case !reveal:
				case row.Err != nil:
					fmt.Fprint(tw, "\t(could not decrypt)")
				default:
					fmt.Fprintf(tw, "\t%s", row.Password)
				}
				fmt.Fprintln(tw)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d of %d records\n", len(rows), total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "also print each password")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError{msg: fmt.Sprintf("invalid record id %q", s)}
	}
	return id, nil
}

func newShowCmd(a *app) *cobra.Command {
	var copyPassword bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a credential and its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			rec, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "client:   %s\n", rec.ClientName)
			fmt.Fprintf(a.out, "platform: %s\n", rec.Platform)
			fmt.Fprintf(a.out, "username: %s\n", rec.Username)
			if rec.Notes != "" {
				fmt.Fprintf(a.out, "notes:    %s\n", rec.Notes)
			}

			pw, err := svc.Reveal(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, common.ErrDecryption) {
					fmt.Fprintln(a.out, "password: <could not decrypt>")
				}
				return err
			}

			if copyPassword {
				if err := a.copyToClipboard(pw); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(a.out, "password: copied to clipboard")
				return nil
			}
			fmt.Fprintf(a.out, "password: %s\n", pw)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyPassword, "copy", "c", false, "copy the password to the clipboard instead of printing it")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		f           credentialFlags
		newPassword bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			cur, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			c := service.Credential{
				ClientName: cur.ClientName,
				Platform:   cur.Platform,
				Username:   cur.Username,
				Notes:      cur.Notes,
			}
			flags := cmd.Flags()
			if flags.Changed("client") {
				c.ClientName = f.client
			}
			if flags.Changed("platform") {
				c.Platform = f.platform
			}
			if flags.Changed("username") {
				c.Username = f.username
			}
			if flags.Changed("notes") {
				c.Notes = f.notes
			}
			if newPassword || f.generate {
				if c.Password, err = a.newPassword(f); err != nil {
					return err
				}
			}

			if err := svc.Update(cmd.Context(), id, c); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "updated record %d\n", id)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&newPassword, "new-password", false, "prompt for a new password")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a credential",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			rec, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := a.confirm(fmt.Sprintf("Delete %s/%s (%s)?", rec.ClientName, rec.Platform, rec.Username))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.out, "aborted")
					return nil
				}
			}

			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted record %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if length <= 0 {
				length = a.cfg.Password.GenerateLength
			}
			pw, err := auth.GeneratePassword(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, pw)
			return nil
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", 0, "password length (default from config)")
	return cmd
}
