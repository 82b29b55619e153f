// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/updatekit/updatekit/pkg/service"

	"github.com/spf13/cobra"
)

func newProvidersCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "providers [capability]",
		Short: "List the provider candidates of each capability",
		Long: `List the provider candidates of each capability in the order resolution
considers them: manifest layer first, then the providers compiled into
this binary. No provider is instantiated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.listProviders(cmd, args)
		},
	}
}

func (a *App) listProviders(cmd *cobra.Command, args []string) error {
	env, err := a.buildEnvironment(cmd.Context(), a.manifestDirs())
	if err != nil {
		return a.fail(err)
	}

	caps := a.capabilities()
	if len(args) == 1 {
		c, lookupErr := a.lookupCapability(args[0])
		if lookupErr != nil {
			return a.fail(lookupErr)
		}
		caps = []service.Capability{c}
	}

	if len(caps) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("(no providers registered)"))
		return nil
	}

	for i, c := range caps {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		writeCandidates(a.stdout, c, service.Aggregate(c, env.contextRegistry(), a.Realm))
	}
	return nil
}

// writeCandidates prints one capability block.
func writeCandidates(w io.Writer, c service.Capability, candidates []service.Candidate) {
	fmt.Fprintln(w, TitleStyle.Render(c.Name()))
	if len(candidates) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no candidates)"))
		return
	}
	for i, cand := range candidates {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, CmdStyle.Render(cand.Name), SubtitleStyle.Render("("+cand.Origin+")"))
	}
}
