package main

import (
	"os"
)

const version = "0.4.0"

func main() {
	err := newRootCmd(os.Stdout, os.Stderr).Execute()
	os.Exit(exitCode(err, os.Stderr))
}
