package cli

import (
	"fmt"
	"strconv"

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
	eventListPolicy   = auth.ReadOnlyFor(domain.RoleSupport)
	eventAddPolicy    = auth.RequireRoles(domain.RoleSales)
	eventUpdatePolicy = auth.RequireRoles(domain.RoleManagement, domain.RoleSupport)
	eventDeletePolicy = auth.RequireRoles(domain.RoleManagement)
)

func newEventCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Manage events",
	}
	cmd.AddCommand(newEventListCmd(rt))
	cmd.AddCommand(newEventAddCmd(rt))
	cmd.AddCommand(newEventUpdateCmd(rt))
	cmd.AddCommand(newEventDeleteCmd(rt))
	return cmd
}

func newEventListCmd(rt *runtime) *cobra.Command {
	var (
		contractID    int64
		mine          bool
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: rt.guarded(eventListPolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, _ []string) error {
			filter := repository.EventFilter{Limit: limit, Offset: offset}
			if cmd.Flags().Changed("contract") {
				filter.ContractID = &contractID
			}
			if mine {
				filter.SupportContactID = &callerID
			}
			list, err := svc.Events.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, len(list))
			for i, e := range list {
				rows[i] = []string{
					strconv.FormatInt(e.ID, 10), strconv.FormatInt(e.ContractID, 10), e.ClientName,
					formatDate(e.StartDate), formatDate(e.EndDate), orDash(e.Location),
					strconv.Itoa(e.Attendees), formatID(e.SupportContactID),
				}
			}
			return rt.printer(cmd).table(
				[]string{"ID", "CONTRACT", "CLIENT", "START", "END", "LOCATION", "ATTENDEES", "SUPPORT"},
				rows, dto.FromEvents(list))
		}),
	}
	cmd.Flags().Int64Var(&contractID, "contract", 0, "Only events of this contract id")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only events I support")
	addPagingFlags(cmd, &limit, &offset)
	return describePolicy(cmd, eventListPolicy)
}

func newEventAddCmd(rt *runtime) *cobra.Command {
	var (
		input      service.EventInput
		start, end string
		support    int64
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Schedule an event for a signed contract",
		Example: `  crm event add --contract 3 --client-name "Kevin Casey" --client-contact kevin@startup.io --start 2024-06-04 --end 2024-06-05 --location "53 Rue du Château" --attendees 75`,
		Args:    cobra.NoArgs,
		RunE: rt.guarded(eventAddPolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, _ []string) error {
			startDate, err := apperrors.ParseDate(start, "start date")
			if err != nil {
				return err
			}
			endDate, err := apperrors.ParseDate(end, "end date")
			if err != nil {
				return err
			}
			input.StartDate, input.EndDate = startDate, endDate
			if cmd.Flags().Changed("support") {
				input.SupportContactID = &support
			}
			event, err := svc.Events.Create(cmd.Context(), callerID, input)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Event %d created.", event.ID), dto.FromEvent(event))
		}),
	}
	cmd.Flags().Int64Var(&input.ContractID, "contract", 0, "Signed contract id")
	cmd.Flags().StringVar(&input.ClientName, "client-name", "", "Client name")
	cmd.Flags().StringVar(&input.ClientContact, "client-contact", "", "Client contact (email or phone)")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&input.Location, "location", "", "Location")
	cmd.Flags().IntVar(&input.Attendees, "attendees", 0, "Expected attendees")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "Notes")
	cmd.Flags().Int64Var(&support, "support", 0, "Support collaborator id")
	return describePolicy(cmd, eventAddPolicy)
}

func newEventUpdateCmd(rt *runtime) *cobra.Command {
	var (
		location, notes, start, end string
		attendees                   int
		support                     int64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an event",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(eventUpdatePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "event id")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var update service.EventUpdate
			if flags.Changed("location") {
				update.Location = &location
			}
			if flags.Changed("notes") {
				update.Notes = &notes
			}
			if flags.Changed("attendees") {
				update.Attendees = &attendees
			}
			if flags.Changed("support") {
				update.SupportContactID = &support
			}
			if update.StartDate, err = parseOptionalDate(start, "start date"); err != nil {
				return err
			}
			if update.EndDate, err = parseOptionalDate(end, "end date"); err != nil {
				return err
			}
			event, err := svc.Events.Update(cmd.Context(), callerID, id, update)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Event %d updated.", event.ID), dto.FromEvent(event))
		}),
	}
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&attendees, "attendees", 0, "Expected attendees")
	cmd.Flags().Int64Var(&support, "support", 0, "Support collaborator id")
	return describePolicy(cmd, eventUpdatePolicy)
}

func newEventDeleteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(eventDeletePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "event id")
			if err != nil {
				return err
			}
			if err := svc.Events.Delete(cmd.Context(), callerID, id); err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Event %d deleted.", id), map[string]int64{"deleted": id})
		}),
	}
	return describePolicy(cmd, eventDeletePolicy)
}
