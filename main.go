// SPDX-License-Identifier: MPL-2.0

package main

import "netfacts-cli/cmd/netfacts"

func main() {
	cmd.Execute()
}
