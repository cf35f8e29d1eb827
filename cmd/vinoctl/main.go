// Command vinoctl runs operational tasks against the Vinoteca database.
package main

import "vinoteca/cmd/vinoctl/commands"

func main() {
	commands.Execute()
}
