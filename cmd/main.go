package main

import (
	"fmt"
	"os"
	"strconv"
)

func main() {
	rootCmd.SetArgs(protectNegativeNumber(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// protectNegativeNumber moves the first negative integer behind a trailing
// "--" so that "clfib -5" reads as a number rather than a shorthand flag.
// Flags given after the number keep working.
func protectNegativeNumber(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args
		}
		if len(arg) > 1 && arg[0] == '-' {
			if _, err := strconv.Atoi(arg); err == nil {
				out := make([]string, 0, len(args)+1)
				out = append(out, args[:i]...)
				out = append(out, args[i+1:]...)
				return append(out, "--", arg)
			}
		}
	}
	return args
}
