// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	NoProviderFoundId Id = iota + 1
	InvalidOverrideNameId
	InstantiationFailedId
	ManifestInvalidId
	ConfigLoadFailedId
	CapabilityUnknownId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation pages about this issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	noProviderFoundIssue = &Issue{
		id: NoProviderFoundId,
		mdMsg: `
# No provider found!

Neither the manifest layer nor the providers built into this binary offer an
implementation of the requested capability.

## Things you can try:
- List what is available for every capability:
~~~
$ updatekit providers
~~~

- Check that the provider package is imported by the host binary
- Check the manifest directories in your config and their ` + "`requires`" + ` constraints:
~~~
$ updatekit manifest validate <dir>
~~~`,
	}

	invalidOverrideNameIssue = &Issue{
		id: InvalidOverrideNameId,
		mdMsg: `
# Invalid provider override!

An override must be a provider name made of dot-separated identifiers, for
example ` + "`console.Handler`" + `. Nothing was resolved.

## Things you can try:
- Copy the name exactly as listed by:
~~~
$ updatekit providers <capability>
~~~

- Check the ` + "`overrides`" + ` entries in your config file
- Remove the ` + "`--override`" + ` flag to select by version`,
	}

	instantiationFailedIssue = &Issue{
		id: InstantiationFailedId,
		mdMsg: `
# Provider failed to start!

A provider's constructor returned an error while candidates were being
instantiated. Resolution stops at the first failure.

## Things you can try:
- Run with verbose mode to see the full error chain:
~~~
$ updatekit --verbose resolve <capability>
~~~

- Override the capability with a different provider
- Remove the failing provider from your manifests`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Invalid provider manifest!

A manifest could not be parsed or names a provider this binary does not
contain.

## Common issues:
- Unknown field names (fields are ` + "`name`, `requires`, `provides`" + `)
- A ` + "`requires`" + ` value that is not a semantic version constraint
- Provider names that are not compiled into the binary

## Example manifest:
~~~toml
name = "plugins"
requires = ">= 1.2.0"

[[provides]]
capability = "github.com/updatekit/updatekit/pkg/update.Handler"
providers = ["console.Handler"]
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your configuration file could not be read or does not match the schema.

## Things you can try:
- Show the location that is being read:
~~~
$ updatekit config path
~~~

- Recreate a default configuration:
~~~
$ updatekit config init
~~~

- Point to a different file with ` + "`--config`",
	}

	capabilityUnknownIssue = &Issue{
		id: CapabilityUnknownId,
		mdMsg: `
# Unknown capability!

No provider in this binary or its manifests registers the capability you
named. Capabilities are identified by their fully qualified Go type name.

## Things you can try:
- List known capabilities:
~~~
$ updatekit providers
~~~

- Check for typos in the import path and type name`,
	}

	issues = map[Id]*Issue{
		noProviderFoundIssue.Id():     noProviderFoundIssue,
		invalidOverrideNameIssue.Id(): invalidOverrideNameIssue,
		instantiationFailedIssue.Id(): instantiationFailedIssue,
		manifestInvalidIssue.Id():     manifestInvalidIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		capabilityUnknownIssue.Id():   capabilityUnknownIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
