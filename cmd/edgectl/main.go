package main

import (
	"fmt"
	"os"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
