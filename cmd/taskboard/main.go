// Command taskboard is a terminal client for a remote task service.
package main

import (
	"os"

	"taskboard/cmd/taskboard/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, &cmd.Config{Stdin: os.Stdin}))
}
