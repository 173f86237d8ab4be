// Command modman activates and deactivates mod packages against a game
// directory, keeping a crash-recoverable journal and content-addressed
// backups of whatever it overwrites.
package main

import "github.com/modman/modman/cmd"

func main() {
	cmd.Execute()
}
