package main

import (
	"os"

	"github.com/grokify/versionrewind/cmd/versionrewind/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
