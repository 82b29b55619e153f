// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/updatekit/updatekit/pkg/service/manifest"

	"github.com/spf13/cobra"
)

func newManifestCommand(app *App) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Work with provider manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	manifestCmd.AddCommand(&cobra.Command{
		Use:   "validate <dir>...",
		Short: "Load manifest directories and check every declared provider",
		Long: `Load the manifests of each directory, in order, and build the layer they
describe against the providers compiled into this binary. Diagnostics are
printed; unknown capabilities or providers fail the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.validateManifests(cmd, args)
		},
	})

	return manifestCmd
}

func (a *App) validateManifests(cmd *cobra.Command, dirs []string) error {
	manifests, err := manifest.LoadDirs(cmd.Context(), dirs)
	if err != nil {
		return a.fail(manifestLoadError(dirs, err))
	}

	layer, diags, err := manifest.Build(manifestLayerName, manifests, a.Realm, a.hostVersion())
	for _, d := range diags {
		fmt.Fprintln(a.stdout, WarningStyle.Render(d.String()))
	}
	if err != nil {
		return a.fail(manifestLoadError(dirs, err))
	}

	caps := layer.Capabilities()
	fmt.Fprintf(a.stdout, "%s %d manifest(s), %d capability(ies)\n", SuccessStyle.Render("✓"), len(manifests), len(caps))
	for _, c := range caps {
		writeCandidates(a.stdout, c, layer.Providers(c))
	}
	return nil
}
