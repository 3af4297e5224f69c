package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/session"
)

// readPassword takes the flag, then PORTALCTL_PASSWORD, then one line of stdin.
func readPassword(flag string, in io.Reader) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("PORTALCTL_PASSWORD"); env != "" {
		return env, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required (--password, PORTALCTL_PASSWORD or stdin)")
	}
	return pw, nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			m := session.NewManager(a.provider, a.logger)
			if err := m.SignIn(cmd.Context(), email, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var p session.SignUpParams
	var password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p.Password = pw
			m := session.NewManager(a.provider, a.logger)
			if err := m.SignUp(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account created, check your inbox to verify the address")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Email, "email", "", "account email")
	f.StringVar(&password, "password", "", "account password")
	f.StringVar(&p.FullName, "name", "", "full name")
	f.StringVar(&p.Department, "department", "", "department")
	f.StringVar(&p.RollNumber, "roll-number", "", "student roll number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.provider.SignOut(cmd.Context()); err != nil {
				a.logger.Debug("server sign out failed", zap.Error(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user and role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := session.NewManager(a.provider, a.logger)
			m.Start(cmd.Context())
			defer m.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			// a failed lookup leaves the role unresolved; print what we have at the deadline
			s, _ := m.Wait(ctx, func(s session.Snapshot) bool {
				return s.Phase == access.PhaseAnonymous ||
					(s.Phase == access.PhaseAuthenticated && s.Role != access.RoleUnresolved)
			})
			return printSnapshot(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the role")
	return cmd
}

func printSnapshot(w io.Writer, s session.Snapshot) error {
	switch s.Phase {
	case access.PhaseLoading:
		return errors.New("could not reach the server")
	case access.PhaseAnonymous:
		fmt.Fprintln(w, "not signed in")
		return nil
	}
	role := string(s.Role)
	if s.Role == access.RoleUnresolved {
		role = "(unresolved)"
	}
	fmt.Fprintf(w, "user:     %s (%s)\n", s.User.Email, s.User.ID)
	fmt.Fprintf(w, "role:     %s\n", role)
	fmt.Fprintf(w, "admin:    %t\nfaculty:  %t\nstaff:    %t\n", s.IsAdmin, s.IsFaculty, s.IsAdminOrFaculty)
	return nil
}

func newRoleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Role commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Drop the cached role on the server and resolve it again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := a.provider.RefreshRole(cmd.Context())
			if err != nil {
				return err
			}
			if role == access.RoleUnresolved {
				fmt.Fprintln(cmd.OutOrStdout(), "role: (unresolved)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "role: %s\n", role)
			return nil
		},
	})
	return cmd
}
