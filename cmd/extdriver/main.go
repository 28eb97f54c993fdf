// Package main is the entry point of the extdriver command.
package main

import "github.com/liuxd6825/extdriver/cmd"

func main() {
	cmd.Execute()
}
