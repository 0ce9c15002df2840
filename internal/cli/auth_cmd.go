package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/auth"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a session token",
		Long:  "Authenticate with email and password. The session token is stored locally until it expires or you log out.",
		Example: `  crm login --email kevin@epic.events
  crm login --email kevin@epic.events --password 's3cret'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return apperrors.NewValidationError("email is required (use --email)", nil)
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				if rt.opts.ReadPassword == nil {
					return apperrors.NewValidationError("password is required (use --password)", nil)
				}
				read, err := rt.opts.ReadPassword("Password: ")
				if err != nil {
					return err
				}
				password = read
			}

			svc, err := rt.loadServices(cmd.Context())
			if err != nil {
				return err
			}
			user, issued, err := svc.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(
				fmt.Sprintf("Logged in as %s (%s). Session valid until %s.",
					user.Name, user.Role, issued.ExpiresAt.Local().Format(time.DateTime)),
				dto.SessionResponse{Collaborator: dto.FromUser(user), ExpiresAt: issued.ExpiresAt},
			)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Collaborator email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted with hidden input when omitted)")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := rt.loadCore()
			if err != nil {
				return err
			}
			existed, err := core.SessionService().Logout(cmd.Context())
			if err != nil {
				return err
			}
			message := "No active session."
			if existed {
				message = "Logged out."
			}
			return rt.printer(cmd).success(message, map[string]bool{"logged_out": existed})
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the collaborator behind the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.loadServices(cmd.Context())
			if err != nil {
				return err
			}
			user, err := svc.Guard.Authorize(cmd.Context(), auth.AnyAuthenticated)
			if err != nil {
				return err
			}
			view := dto.FromUser(user)
			permissionSet := "-"
			if view.PermissionSet != nil {
				permissionSet = *view.PermissionSet
			}
			return rt.printer(cmd).detail([][2]string{
				{"ID", fmt.Sprint(view.ID)},
				{"Name", view.Name},
				{"Email", view.Email},
				{"Department", view.Department},
				{"Role", view.Role},
				{"Permission set", permissionSet},
				{"Permissions", orDash(strings.Join(view.Permissions, ", "))},
			}, view)
		},
	}
	return describePolicy(cmd, auth.AnyAuthenticated)
}

// readPassword prompts on the terminal with echo disabled.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", apperrors.NewValidationError("no terminal available for the password prompt (use --password)", nil)
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("empty password")
	}
	return string(raw), nil
}
