package main

import (
	"os"

	"github.com/dsmolkin/mediakeeper/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
