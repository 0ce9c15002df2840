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
)

var (
	contractListPolicy   = auth.ReadOnlyFor(domain.RoleManagement)
	contractManagePolicy = auth.RequireRoles(domain.RoleManagement)
	contractUpdatePolicy = auth.RequireRoles(domain.RoleManagement, domain.RoleSales)
)

func newContractCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contract",
		Aliases: []string{"contracts"},
		Short:   "Manage contracts",
	}
	cmd.AddCommand(newContractListCmd(rt))
	cmd.AddCommand(newContractAddCmd(rt))
	cmd.AddCommand(newContractUpdateCmd(rt))
	cmd.AddCommand(newContractDeleteCmd(rt))
	return cmd
}

func newContractListCmd(rt *runtime) *cobra.Command {
	var (
		clientID      int64
		unsigned      bool
		signed        bool
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		Args:  cobra.NoArgs,
		RunE: rt.guarded(contractListPolicy, func(cmd *cobra.Command, svc *app.Services, _ int64, _ []string) error {
			filter := repository.ContractFilter{Limit: limit, Offset: offset}
			if cmd.Flags().Changed("client") {
				filter.ClientID = &clientID
			}
			switch {
			case signed && unsigned:
			case signed:
				filter.Signed = &signed
			case unsigned:
				notSigned := false
				filter.Signed = &notSigned
			}
			contracts, err := svc.Contracts.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, len(contracts))
			for i, c := range contracts {
				rows[i] = []string{
					strconv.FormatInt(c.ID, 10), strconv.FormatInt(c.ClientID, 10), formatID(c.CommercialID),
					formatAmount(c.TotalAmount), formatAmount(c.AmountRemaining), strconv.FormatBool(c.Signed),
				}
			}
			return rt.printer(cmd).table(
				[]string{"ID", "CLIENT", "COMMERCIAL", "TOTAL", "REMAINING", "SIGNED"},
				rows, dto.FromContracts(contracts))
		}),
	}
	cmd.Flags().Int64Var(&clientID, "client", 0, "Only contracts of this client id")
	cmd.Flags().BoolVar(&signed, "signed", false, "Only signed contracts")
	cmd.Flags().BoolVar(&unsigned, "unsigned", false, "Only unsigned contracts")
	addPagingFlags(cmd, &limit, &offset)
	return describePolicy(cmd, contractListPolicy)
}

func newContractAddCmd(rt *runtime) *cobra.Command {
	var input service.ContractInput
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a contract for a client",
		Example: `  crm contract add --client 1 --total 10000 --remaining 10000`,
		Args:    cobra.NoArgs,
		RunE: rt.guarded(contractManagePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, _ []string) error {
			if !cmd.Flags().Changed("remaining") {
				input.AmountRemaining = input.TotalAmount
			}
			contract, err := svc.Contracts.Create(cmd.Context(), callerID, input)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Contract %d created.", contract.ID), dto.FromContract(contract))
		}),
	}
	cmd.Flags().Int64Var(&input.ClientID, "client", 0, "Client id")
	cmd.Flags().Float64Var(&input.TotalAmount, "total", 0, "Total amount")
	cmd.Flags().Float64Var(&input.AmountRemaining, "remaining", 0, "Amount remaining (defaults to the total)")
	cmd.Flags().BoolVar(&input.Signed, "signed", false, "Mark the contract as signed")
	return describePolicy(cmd, contractManagePolicy)
}

func newContractUpdateCmd(rt *runtime) *cobra.Command {
	var (
		total, remaining float64
		signed           bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update amounts or sign a contract",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(contractUpdatePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "contract id")
			if err != nil {
				return err
			}
			var update service.ContractUpdate
			if cmd.Flags().Changed("total") {
				update.TotalAmount = &total
			}
			if cmd.Flags().Changed("remaining") {
				update.AmountRemaining = &remaining
			}
			if cmd.Flags().Changed("signed") {
				update.Signed = &signed
			}
			contract, err := svc.Contracts.Update(cmd.Context(), callerID, id, update)
			if err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Contract %d updated.", contract.ID), dto.FromContract(contract))
		}),
	}
	cmd.Flags().Float64Var(&total, "total", 0, "Total amount")
	cmd.Flags().Float64Var(&remaining, "remaining", 0, "Amount remaining")
	cmd.Flags().BoolVar(&signed, "signed", false, "Signed status")
	return describePolicy(cmd, contractUpdatePolicy)
}

func newContractDeleteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contract with its events",
		Args:  cobra.ExactArgs(1),
		RunE: rt.guarded(contractManagePolicy, func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error {
			id, err := parseID(args[0], "contract id")
			if err != nil {
				return err
			}
			if err := svc.Contracts.Delete(cmd.Context(), callerID, id); err != nil {
				return err
			}
			return rt.printer(cmd).success(fmt.Sprintf("Contract %d deleted.", id), map[string]int64{"deleted": id})
		}),
	}
	return describePolicy(cmd, contractManagePolicy)
}
