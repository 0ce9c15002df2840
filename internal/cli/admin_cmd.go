package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/service"
)

func newBootstrapCmd(rt *runtime) *cobra.Command {
	var input service.CollaboratorInput
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the role catalog and create the first MANAGEMENT collaborator",
		Long: `Provision an empty installation: the default SALES, MANAGEMENT and SUPPORT
permission sets are created, then a MANAGEMENT collaborator is registered.
The command refuses to run once any collaborator exists.`,
		Example: `  crm bootstrap --employee E001 --name "Alice Admin" --email alice@epic.events --department Management`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input.Password == "" && rt.opts.ReadPassword != nil {
				read, err := rt.opts.ReadPassword("Password: ")
				if err != nil {
					return err
				}
				input.Password = read
			}
			svc, err := rt.loadServices(cmd.Context())
			if err != nil {
				return err
			}
			user, err := svc.Bootstrap.Bootstrap(cmd.Context(), input)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(
				fmt.Sprintf("Installation bootstrapped. Log in as %s.", user.Email), dto.FromUser(user))
		},
	}
	cmd.Flags().StringVar(&input.EmployeeNumber, "employee", "", "Employee number")
	cmd.Flags().StringVar(&input.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&input.Department, "department", "Management", "Department")
	return cmd
}

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := rt.loadCore()
			if err != nil {
				return err
			}
			schema, err := rt.opts.Migrate(cmd.Context(), core)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return rt.printer(cmd).success(
				fmt.Sprintf("Database schema at version %d.", schema), map[string]int64{"version": schema})
		},
	}
}
