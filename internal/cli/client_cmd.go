package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/internal/service"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

var (
	clientListPolicy   = auth.ReadOnlyFor(domain.RoleSales)
	clientWritePolicy  = auth.RequireRoles(domain.RoleSales)
	clientDeletePolicy = auth.RequireRoles(domain.RoleSales, domain.RoleManagement)
)

func newClientCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "client",
		Aliases: []string{"clients"},
		Short:   "Manage clients",
	}
	cmd.AddCommand(newClientListCmd(rt))
	cmd.AddCommand(newClientAddCmd(rt))
	cmd.AddCommand(newClientUpdateCmd(rt))
	cmd.AddCommand(newClientDeleteCmd(rt))
	return cmd
}

func newClientListCmd(rt *runtime) *cobra.Command {
	var (
		mine          bool
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: rt.guarded(clientListPolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, _ []string) error {
			filter := repository.ClientFilter{Limit: limit, Offset: offset}
			if mine {
				filter.CommercialContactID = &callerID
			}
			clients, err := svc.Clients.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, len(clients))
			for i, c := range clients {
				rows[i] = []string{
					strconv.FormatInt(c.ID, 10), c.FullName, c.Email, orDash(c.Phone), orDash(c.CompanyName),
					formatOptionalDate(c.LastContactAt), formatID(c.CommercialContactID),
				}
			}
			return rt.printer(cmd).table(
				[]string{"ID", "NAME", "EMAIL", "PHONE", "COMPANY", "LAST CONTACT", "COMMERCIAL"},
				rows, dto.FromClients(clients))
		}),
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "Only clients I follow")
	addPagingFlags(cmd, &limit, &offset)
	return describePolicy(cmd, clientListPolicy)
}

func newClientAddCmd(rt *runtime) *cobra.Command {
	var (
		input       service.ClientInput
		lastContact string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Register a client followed by you",
		Example: `  crm client add --name "Kevin Casey" --email kevin@startup.io --phone 0612345678 --company "Cool Startup LLC"`,
		Args:    cobra.NoArgs,
		RunE: rt.guarded(clientWritePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, _ []string) error {
			date, err := parseOptionalDate(lastContact, "last contact")
			if err != nil {
				return err
			}
			input.LastContactAt = date
			client, err := svc.Clients.Create(cmd.Context(), callerID, input)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Client %d created.", client.ID), dto.FromClient(client))
		}),
	}
	cmd.Flags().StringVar(&input.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "Phone number (10 digits)")
	cmd.Flags().StringVar(&input.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&lastContact, "last-contact", "", "Last contact date (YYYY-MM-DD)")
	return describePolicy(cmd, clientWritePolicy)
}

func newClientUpdateCmd(rt *runtime) *cobra.Command {
	var (
		name, email, phone, company, lastContact string
		commercial                               int64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a client",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(clientWritePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "client id")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var update service.ClientUpdate
			if flags.Changed("name") {
				update.FullName = &name
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("phone") {
				update.Phone = &phone
			}
			if flags.Changed("company") {
				update.CompanyName = &company
			}
			if flags.Changed("last-contact") {
				date, err := apperrors.ParseDate(lastContact, "last contact")
				if err != nil {
					return err
				}
				update.LastContactAt = &date
			}
			if flags.Changed("commercial") {
				update.CommercialContactID = &commercial
			}
			client, err := svc.Clients.Update(cmd.Context(), callerID, id, update)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Client %d updated.", client.ID), dto.FromClient(client))
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (10 digits)")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&lastContact, "last-contact", "", "Last contact date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&commercial, "commercial", 0, "Reassign to this commercial collaborator id")
	return describePolicy(cmd, clientWritePolicy)
}

func newClientDeleteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client with its contracts and events",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(clientDeletePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "client id")
			if err != nil {
				return err
			}
			if err := svc.Clients.Delete(cmd.Context(), callerID, id); err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Client %d deleted.", id), map[string]int64{"deleted": id})
		}),
	}
	return describePolicy(cmd, clientDeletePolicy)
}

func parseID(value, field string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a positive integer", field), nil)
	}
	return id, nil
}

func parseOptionalDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, err := apperrors.ParseDate(value, field)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func addPagingFlags(cmd *cobra.Command, limit, offset *int) {
	cmd.Flags().IntVar(limit, "limit", 0, "Maximum number of rows (default 100)")
	cmd.Flags().IntVar(offset, "offset", 0, "Rows to skip")
}
