// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a well-known issue for catalog lookup.
type Id int

const (
	EngineNotFoundId Id = iota + 1
	BaseImageUnresolvableId
	ProvisionFailedId
	PlatformUnsupportedId
	ScriptStagingFailedId
)

// MarkdownMsg is markdown text rendered to the terminal via glamour.
type MarkdownMsg string

// HttpLink points at documentation for an issue.
type HttpLink string

// Issue describes a well-known failure mode with rendered help text.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
}

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown for the issue.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns documentation links for the issue.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue's markdown with the given glamour style path.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

// render is swappable in tests to avoid terminal-dependent output.
var render = glamour.Render

var (
	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# No container engine found!

awqprov needs Docker or Podman to assemble the provisioned image.

## Things you can try:
- Install Podman or Docker and make sure the binary is on your PATH
- Verify the daemon/socket is reachable:
~~~
$ docker version
$ podman version
~~~
- Select an engine explicitly:
~~~
$ awqprov provision --engine podman ...
~~~`,
	}

	baseImageUnresolvableIssue = &Issue{
		id: BaseImageUnresolvableId,
		mdMsg: `
# Base image could not be resolved!

The base image must be resolvable before any install or build step runs.

## Things you can try:
- Check the image reference for typos (registry, repository, tag)
- Pull it manually to see the engine's own diagnostics:
~~~
$ docker pull <base-image>
~~~
- If the registry needs credentials, log in first`,
	}

	provisionFailedIssue = &Issue{
		id: ProvisionFailedId,
		mdMsg: `
# Provisioning failed!

Both the prebuilt-wheel install and the source build were attempted and
both exited non-zero. No image was committed.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see the full script output
- Check that the base image ships the transformers package; awqprov
  asserts it but never installs it
- For the build path, confirm the compute capabilities match your GPU:
~~~
$ awqprov provision --compute-capabilities "8.7" ...
~~~`,
	}

	platformUnsupportedIssue = &Issue{
		id: PlatformUnsupportedId,
		mdMsg: `
# Platform release too old!

The target platform release does not satisfy the minimum the AutoAWQ
kernels are published for.

## Things you can try:
- Upgrade the device to a supported release
- Override detection when provisioning for a different target:
~~~
$ AWQPROV_PLATFORM_RELEASE=36.4.3 awqprov provision ...
~~~
- Skip the gate entirely (at your own risk):
~~~
$ awqprov provision --skip-platform-check ...
~~~`,
	}

	scriptStagingFailedIssue = &Issue{
		id: ScriptStagingFailedId,
		mdMsg: `
# Could not stage the install/build scripts!

awqprov stages its helper scripts into a temporary directory that the
container engine must be able to read.

## Things you can try:
- Check free space and permissions under your home directory
- Snap-packaged Docker cannot read /tmp; awqprov works around this, but
  a read-only home directory defeats the workaround`,
	}

	catalog = map[Id]*Issue{
		EngineNotFoundId:        engineNotFoundIssue,
		BaseImageUnresolvableId: baseImageUnresolvableIssue,
		ProvisionFailedId:       provisionFailedIssue,
		PlatformUnsupportedId:   platformUnsupportedIssue,
		ScriptStagingFailedId:   scriptStagingFailedIssue,
	}
)

// Lookup returns the catalog issue for the given id, or nil if unknown.
func Lookup(id Id) *Issue {
	return catalog[id]
}
