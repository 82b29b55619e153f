// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/updatekit/updatekit/pkg/service"

	"github.com/spf13/cobra"
)

type resolveOptions struct {
	override string
}

func newResolveCommand(app *App) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <capability>",
		Short: "Select the provider of a capability",
		Long: `Run a full resolution for a capability and print the selected provider.

With an override (from --override or the overrides list in the config file)
the named candidate is selected when it exists. Otherwise, or when the
override names no candidate, the provider reporting the highest version wins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.resolve(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.override, "override", "", "provider name to select instead of ranking by version")

	return cmd
}

func (a *App) resolve(cmd *cobra.Command, capName string, opts *resolveOptions) error {
	defer a.writeMetrics()

	// The override is checked before the capability lookup and before any
	// manifest directory is read.
	override := opts.override
	if override == "" {
		override, _ = a.cfg.OverrideFor(capName)
	}
	if err := service.ValidateOverride(override); err != nil {
		return a.fail(err)
	}

	c, err := a.lookupCapability(capName)
	if err != nil {
		return a.fail(err)
	}

	env, err := a.buildEnvironment(cmd.Context(), a.manifestDirs())
	if err != nil {
		return a.fail(err)
	}

	var res service.Resolution
	svc, err := service.Resolve(service.NewRequest(c,
		service.WithContext(env.contextRegistry()),
		service.WithRealm(a.Realm),
		service.WithOverride(override),
		service.WithDiagnostics(a.stderr),
		service.WithObserver(service.ObserverFunc(func(r service.Resolution) {
			res = r
			a.recorder.ObserveResolution(r)
		})),
	))
	if err != nil {
		return a.fail(err)
	}
	a.logger.Debug("resolution finished", "capability", c.Name(), "outcome", string(res.Outcome), "duration", res.Duration)

	fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(res.Selected))
	fmt.Fprintf(a.stdout, "  version: %d\n", svc.Version())
	fmt.Fprintf(a.stdout, "  origin:  %s\n", res.Origin)
	fmt.Fprintf(a.stdout, "  outcome: %s\n", res.Outcome)
	return nil
}
