package main

import (
	"os"

	"ai-startup-map/cli"
)

func main() {
	os.Exit(cli.Execute())
}
