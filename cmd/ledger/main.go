package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/fhegame/internal/server"
)

func main() {
	if err := server.NewRootCommand(os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
