// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bonial-oss/cve-pulse/internal/account"
	"github.com/bonial-oss/cve-pulse/internal/output"
	"github.com/bonial-oss/cve-pulse/internal/session"
)

func newLoginCmd(opts *Options) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the dashboard",
		Long: heredoc.Doc(`
			Sign in with email and password. The password is read from the terminal
			without echo, or from the first line of stdin when stdin is not a terminal.
			Only the username and email are kept; the password is never stored.
		`),
		Example: heredoc.Doc(`
			$ cve-pulse login --email alice@example.com
			$ echo "$PASSWORD" | cve-pulse login --email alice@example.com
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			password, err := newPrompter(cmd).secret("Password: ")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := rt.accounts().Login(ctx, email, password)
			if err != nil {
				return accountError(err)
			}
			if err := rt.sessions().Save(ctx, sess); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSignupCmd(opts *Options) *cobra.Command {
	options := struct {
		username string
		email    string
	}{}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a dashboard account and sign in",
		Example: heredoc.Doc(`
			$ cve-pulse signup --username alice --email alice@example.com
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			p := newPrompter(cmd)
			password, err := p.secret("Password: ")
			if err != nil {
				return err
			}
			confirm, err := p.secret("Confirm password: ")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := rt.accounts().Signup(ctx, account.SignupRequest{
				Username:        options.username,
				Email:           options.email,
				Password:        password,
				ConfirmPassword: confirm,
			})
			if err != nil {
				return accountError(err)
			}
			if err := rt.sessions().Save(ctx, sess); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account created, signed in as %s\n", sess.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&options.email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.sessions().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *Options) *cobra.Command {
	var format = FormatTable

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := loadSession(cmd, rt)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == FormatJSON {
				return output.WriteJSON(w, sess)
			}
			fmt.Fprintf(w, "Username:  %s\nEmail:     %s\nSigned in: %s\n",
				sess.Username, sess.Email, sess.SignedInAt.Local().Format(time.DateTime))
			return nil
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func newUpdateUserCmd(opts *Options) *cobra.Command {
	options := struct {
		field string
		value string
	}{}

	cmd := &cobra.Command{
		Use:   "update-user",
		Short: "Change the username, email or password of the signed-in user",
		Example: heredoc.Doc(`
			$ cve-pulse update-user --field username --value bob
			$ cve-pulse update-user --field email --value bob@example.com
			$ cve-pulse update-user --field password
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, err := account.ParseField(options.field)
			if err != nil {
				return validationError(err)
			}

			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := loadSession(cmd, rt)
			if err != nil {
				return err
			}

			value := options.value
			if field == account.FieldPassword && value == "" {
				if value, err = newPrompter(cmd).secret("New password: "); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			updated, err := rt.accounts().UpdateUser(ctx, sess, field, value)
			if err != nil {
				return accountError(err)
			}
			if err := rt.sessions().Save(ctx, updated); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s for %s\n", field, updated.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&options.field, "field", "", "Field to change: username, email, password")
	cmd.Flags().StringVar(&options.value, "value", "", "New value (prompted for passwords when omitted)")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func loadSession(cmd *cobra.Command, rt *runtime) (session.Session, error) {
	sess, err := rt.sessions().Load(cmd.Context())
	if errors.Is(err, session.ErrNotSignedIn) {
		return session.Session{}, &ExitError{Code: ExitFailure, Message: "not signed in; run `cve-pulse login` first"}
	}
	return sess, err
}

// prompter reads secrets from the terminal without echo, or line by line
// from a non-terminal stdin.
type prompter struct {
	in     io.Reader
	lines  *bufio.Reader
	prompt io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: cmd.InOrStdin(), prompt: cmd.ErrOrStderr()}
}

func (p *prompter) secret(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.prompt, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	if p.lines == nil {
		p.lines = bufio.NewReader(p.in)
	}
	line, err := p.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
