package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
)

// runtime resolves configuration and connections on first use so commands
// such as version or logout never touch the database.
type runtime struct {
	opts     Options
	output   string
	core     *app.Core
	services *app.Services
	release  func()
}

func (rt *runtime) loadCore() (*app.Core, error) {
	if rt.core != nil {
		return rt.core, nil
	}
	if rt.opts.LoadConfig == nil {
		return nil, errors.New("no configuration loader")
	}
	cfg, err := rt.opts.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	newLogger := rt.opts.NewLogger
	if newLogger == nil {
		return nil, errors.New("no logger factory")
	}
	logger, err := newLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	core, err := app.NewCore(cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.core = core
	return core, nil
}

func (rt *runtime) loadServices(ctx context.Context) (*app.Services, error) {
	if rt.services != nil {
		return rt.services, nil
	}
	core, err := rt.loadCore()
	if err != nil {
		return nil, err
	}
	repos, release, err := rt.opts.Connect(ctx, core)
	if err != nil {
		return nil, err
	}
	rt.release = release
	rt.services = core.Services(repos)
	return rt.services, nil
}

func (rt *runtime) close() {
	if rt.release != nil {
		rt.release()
		rt.release = nil
	}
	if rt.core != nil {
		_ = rt.core.Logger.Sync()
	}
}

func (rt *runtime) printer(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), format: rt.output}
}

// action is a guarded command body. callerID is the authenticated collaborator.
type action func(cmd *cobra.Command, svc *app.Services, callerID int64, args []string) error

// guarded builds a RunE that passes the session through the access guard
// before running fn.
func (rt *runtime) guarded(policy auth.Policy, fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := rt.loadServices(cmd.Context())
		if err != nil {
			return err
		}
		op := svc.Guard.Wrap(policy, func(_ context.Context, callerID int64, args []string) error {
			return fn(cmd, svc, callerID, args)
		})
		return op(cmd.Context(), args)
	}
}

// describePolicy appends the access policy to a command's long help.
func describePolicy(cmd *cobra.Command, policy auth.Policy) *cobra.Command {
	cmd.Long = fmt.Sprintf("%s\n\nAllowed roles: %s.", cmd.Short, policy)
	return cmd
}
