package main

import (
	"os"
	"strings"

	"ResearchBoard/internal/cli"
	boardnet "ResearchBoard/internal/net"
)

func main() {
	args := os.Args[1:]
	// a share link opened through the URL scheme handler joins that board
	if len(args) == 1 && strings.HasPrefix(args[0], boardnet.LinkScheme) {
		args = []string{"join", args[0]}
	}

	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
