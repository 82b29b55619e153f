// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/updatekit/updatekit/cmd/updatekit"

func main() {
	cmd.Execute()
}
