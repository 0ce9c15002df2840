package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/service"
)

var (
	roleListPolicy   = auth.ReadOnlyFor(domain.RoleManagement)
	roleManagePolicy = auth.RequireRoles(domain.RoleManagement)
)

func newRoleCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "role",
		Aliases: []string{"roles"},
		Short:   "Manage permission sets",
	}
	cmd.AddCommand(newRoleListCmd(rt))
	cmd.AddCommand(newRoleAddCmd(rt))
	cmd.AddCommand(newRoleUpdateCmd(rt))
	cmd.AddCommand(newRoleDeleteCmd(rt))
	cmd.AddCommand(newRoleSeedCmd(rt))
	return cmd
}

func newRoleListCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List permission sets",
		Args:  cobra.NoArgs,
		RunE: rt.guarded(roleListPolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, _ []string) error {
			roles, err := svc.Roles.List(cmd.Context())
			if err != nil {
				return err
			}
			views := dto.FromPermissionSets(roles)
			rows := make([][]string, len(views))
			for i, r := range views {
				rows[i] = []string{strconv.FormatInt(r.ID, 10), r.Name, orDash(strings.Join(r.Permissions, ", "))}
			}
			return rt.printer(cmd).table([]string{"ID", "NAME", "PERMISSIONS"}, rows, views)
		}),
	}
	return describePolicy(cmd, roleListPolicy)
}

func newRoleAddCmd(rt *runtime) *cobra.Command {
	var permissions []string
	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a permission set",
		Example: `  crm role add AUDIT --permission view_client --permission view_contract`,
		Args:    cobra.ExactArgs(1),
		RunE: rt.guarded(roleManagePolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, args []string) error {
			role, err := svc.Roles.Create(cmd.Context(), args[0], permissions)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Role %s created.", role.Name), dto.FromPermissionSet(role))
		}),
	}
	cmd.Flags().StringSliceVar(&permissions, "permission", nil, "Permission token (repeatable or comma-separated)")
	return describePolicy(cmd, roleManagePolicy)
}

func newRoleUpdateCmd(rt *runtime) *cobra.Command {
	var (
		rename      string
		permissions []string
	)
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Rename a permission set or replace its permissions",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(roleManagePolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, args []string) error {
			var newName *string
			if cmd.Flags().Changed("rename") {
				newName = &rename
			}
			var perms []string
			if cmd.Flags().Changed("permission") {
				perms = append([]string{}, permissions...)
			}
			role, err := svc.Roles.Update(cmd.Context(), args[0], newName, perms)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Role %s updated.", role.Name), dto.FromPermissionSet(role))
		}),
	}
	cmd.Flags().StringVar(&rename, "rename", "", "New name")
	cmd.Flags().StringSliceVar(&permissions, "permission", nil, "Replacement permission tokens")
	return describePolicy(cmd, roleManagePolicy)
}

func newRoleDeleteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a permission set",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(roleManagePolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, args []string) error {
			if err := svc.Roles.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Role %s deleted.", args[0]), map[string]string{"deleted": args[0]})
		}),
	}
	return describePolicy(cmd, roleManagePolicy)
}

func newRoleSeedCmd(rt *runtime) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or refresh permission sets from a catalog",
		Args:  cobra.NoArgs,
		RunE: rt.guarded(roleManagePolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, _ []string) error {
			catalog := service.DefaultCatalog()
			if file != "" {
				loaded, err := service.LoadCatalog(file)
				if err != nil {
					return err
				}
				catalog = loaded
			}
			result, err := svc.Roles.Seed(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(
				fmt.Sprintf("Roles seeded: %d created, %d updated.", result.Created, result.Updated), result)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog (defaults to the built-in catalog)")
	return describePolicy(cmd, roleManagePolicy)
}
