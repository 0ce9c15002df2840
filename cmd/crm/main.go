package main

import (
	"os"

	"github.com/spec-kit/crm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
