// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DeviceUnreachableId Id = iota + 1
	AuthenticationFailedId
	HostKeyRejectedId
	InvalidGatherSubsetId
	ConfigLoadFailedId
	UnsupportedConfigSourceId
	CommandRejectedId
	EmulatorStartFailedId
	DeviceNotConfiguredId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
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
			extraMd += "\n- [" + string(link) + "](" + string(link) + ")"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- [" + string(link) + "](" + string(link) + ")"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	deviceUnreachableIssue = &Issue{
		id: DeviceUnreachableId,
		mdMsg: `
# Device unreachable!

netfacts could not open an SSH connection to the device.

## Things you can try:
- Check the address and port:
~~~
$ netfacts --host 192.0.2.1 --port 22 device-info
~~~
- Raise the timeout in your config file:
~~~cue
device: timeout: "30s"
~~~
- Try the built-in emulator to rule out local problems:
~~~
$ netfacts emulate &
$ netfacts --host 127.0.0.1 --port 2222 --user admin --password admin --insecure facts
~~~`,
		extLinks: []HttpLink{"https://man.openbsd.org/ssh_config"},
	}

	authenticationFailedIssue = &Issue{
		id: AuthenticationFailedId,
		mdMsg: `
# Authentication failed!

The device rejected the supplied credentials.

## Things you can try:
- Pass a user and password explicitly with ` + "`--user`" + ` and ` + "`--password`" + `
- Point ` + "`--identity`" + ` at a private key the device accepts
- Set ` + "`NETFACTS_DEVICE_PASSWORD`" + ` instead of storing the password in the config file`,
	}

	hostKeyRejectedIssue = &Issue{
		id: HostKeyRejectedId,
		mdMsg: `
# Host key not trusted!

The device's SSH host key is missing from, or does not match, your known_hosts file.

## Things you can try:
- Add the key after verifying it out of band:
~~~
$ ssh-keyscan -p 22 192.0.2.1 >> ~/.ssh/known_hosts
~~~
- Use a different known_hosts file:
~~~cue
device: known_hosts_path: "/etc/netfacts/known_hosts"
~~~
- For lab devices only, skip verification with ` + "`--insecure`",
	}

	invalidGatherSubsetIssue = &Issue{
		id: InvalidGatherSubsetId,
		mdMsg: `
# Bad gather subset!

Valid subsets are ` + "`default`, `hardware`, `interfaces`, `routing`, `config`" + ` and ` + "`all`" + `.
Prefix a subset with ` + "`!`" + ` to exclude it. The default subset is always gathered.

## Examples:
~~~
$ netfacts facts --gather-subset all,!hardware
$ netfacts facts --gather-subset interfaces
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your configuration file could not be parsed or did not match the schema.

## Things you can try:
- Print a valid configuration to start from:
~~~
$ netfacts config dump
~~~
- Show where netfacts looks for the file:
~~~
$ netfacts config path
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	unsupportedConfigSourceIssue = &Issue{
		id: UnsupportedConfigSourceId,
		mdMsg: `
# Unsupported configuration source!

Only the ` + "`running`" + ` and ` + "`startup`" + ` configurations can be fetched.

~~~
$ netfacts config-get --source startup
~~~`,
	}

	commandRejectedIssue = &Issue{
		id: CommandRejectedId,
		mdMsg: `
# Command rejected by the device!

The device answered with an error. Check the command syntax with:
~~~
$ netfacts get "show ?"
~~~`,
	}

	emulatorStartFailedIssue = &Issue{
		id: EmulatorStartFailedId,
		mdMsg: `
# Failed to start the emulator!

## Things you can try:
- Pick a free port:
~~~
$ netfacts emulate --listen 127.0.0.1:2200
~~~
- Check that the host key path is writable
- Validate the responses file; it must be TOML with a ` + "`[commands]`" + ` table`,
	}

	deviceNotConfiguredIssue = &Issue{
		id: DeviceNotConfiguredId,
		mdMsg: `
# No device configured!

Tell netfacts which device to talk to, either per run:
~~~
$ netfacts --host 192.0.2.1 facts
~~~
or once in your config file:
~~~cue
device: host: "192.0.2.1"
~~~`,
	}

	issues = map[Id]*Issue{
		deviceUnreachableIssue.Id():       deviceUnreachableIssue,
		authenticationFailedIssue.Id():    authenticationFailedIssue,
		hostKeyRejectedIssue.Id():         hostKeyRejectedIssue,
		invalidGatherSubsetIssue.Id():     invalidGatherSubsetIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		unsupportedConfigSourceIssue.Id(): unsupportedConfigSourceIssue,
		commandRejectedIssue.Id():         commandRejectedIssue,
		emulatorStartFailedIssue.Id():     emulatorStartFailedIssue,
		deviceNotConfiguredIssue.Id():     deviceNotConfiguredIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
