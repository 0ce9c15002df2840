package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/service"
)

var (
	collaboratorListPolicy   = auth.ReadOnlyFor(domain.RoleManagement)
	collaboratorManagePolicy = auth.RequireRoles(domain.RoleManagement)
)

func newCollaboratorCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collaborator",
		Aliases: []string{"collaborators", "user"},
		Short:   "Manage collaborators",
	}
	cmd.AddCommand(newCollaboratorListCmd(rt))
	cmd.AddCommand(newCollaboratorAddCmd(rt))
	cmd.AddCommand(newCollaboratorUpdateCmd(rt))
	cmd.AddCommand(newCollaboratorDeleteCmd(rt))
	return cmd
}

func newCollaboratorListCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collaborators",
		Args:  cobra.NoArgs,
		RunE: rt.guarded(collaboratorListPolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, _ []string) error {
			users, err := svc.Collaborators.List(cmd.Context())
			if err != nil {
				return err
			}
			views := dto.FromUsers(users)
			rows := make([][]string, len(views))
			for i, u := range views {
				set := "-"
				if u.PermissionSet != nil {
					set = *u.PermissionSet
				}
				rows[i] = []string{strconv.FormatInt(u.ID, 10), u.EmployeeNumber, u.Name, u.Email, u.Department, u.Role, set}
			}
			return rt.printer(cmd).table(
				[]string{"ID", "EMPLOYEE", "NAME", "EMAIL", "DEPARTMENT", "ROLE", "PERMISSION SET"},
				rows, views)
		}),
	}
	return describePolicy(cmd, collaboratorListPolicy)
}

func newCollaboratorAddCmd(rt *runtime) *cobra.Command {
	var (
		input service.CollaboratorInput
		role  string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a collaborator (requires the create_user permission)",
		Example: `  crm collaborator add --employee E042 --name "Anna Support" --email anna@epic.events --department Support --role SUPPORT`,
		Args:    cobra.NoArgs,
		RunE: rt.guarded(collaboratorManagePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, _ []string) error {
			input.Role = domain.Role(role)
			if input.Password == "" && rt.opts.ReadPassword != nil {
				read, err := rt.opts.ReadPassword("Password for the new collaborator: ")
				if err != nil {
					return err
				}
				input.Password = read
			}
			user, err := svc.Collaborators.Create(cmd.Context(), callerID, input)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Collaborator %d created.", user.ID), dto.FromUser(user))
		}),
	}
	cmd.Flags().StringVar(&input.EmployeeNumber, "employee", "", "Employee number")
	cmd.Flags().StringVar(&input.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "Initial password (prompted when omitted)")
	cmd.Flags().StringVar(&input.Department, "department", "", "Department")
	cmd.Flags().StringVar(&role, "role", "", "Role tag: SALES, MANAGEMENT or SUPPORT")
	cmd.Flags().StringVar(&input.PermissionSet, "permission-set", "", "Permission set name (defaults to the role)")
	return describePolicy(cmd, collaboratorManagePolicy)
}

func newCollaboratorUpdateCmd(rt *runtime) *cobra.Command {
	var name, email, department, password, role, permissionSet string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a collaborator (requires the update_user permission)",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(collaboratorManagePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "collaborator id")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var update service.CollaboratorUpdate
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("department") {
				update.Department = &department
			}
			if flags.Changed("password") {
				update.Password = &password
			}
			if flags.Changed("role") {
				r := domain.Role(role)
				update.Role = &r
			}
			if flags.Changed("permission-set") {
				update.PermissionSet = &permissionSet
			}
			user, err := svc.Collaborators.Update(cmd.Context(), callerID, id, update)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Collaborator %d updated.", user.ID), dto.FromUser(user))
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&department, "department", "", "Department")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	cmd.Flags().StringVar(&role, "role", "", "Role tag: SALES, MANAGEMENT or SUPPORT")
	cmd.Flags().StringVar(&permissionSet, "permission-set", "", "Permission set name")
	return describePolicy(cmd, collaboratorManagePolicy)
}

func newCollaboratorDeleteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collaborator (requires the delete_user permission)",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(collaboratorManagePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "collaborator id")
			if err != nil {
				return err
			}
			if err := svc.Collaborators.Delete(cmd.Context(), callerID, id); err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Collaborator %d deleted.", id), map[string]int64{"deleted": id})
		}),
	}
	return describePolicy(cmd, collaboratorManagePolicy)
}
