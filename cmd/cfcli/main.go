package main

import cmd "github.com/rohmanhakim/cfcli/internal/cli"

func main() {
	cmd.Execute()
}
