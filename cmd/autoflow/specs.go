package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dukex/autoflow/pkg/registry"
	"github.com/urfave/cli/v3"
)

func NodeSpecsCommand() *cli.Command {
	return &cli.Command{
		Name:  "node-specs",
		Usage: "Print the registered node specs as JSON",
		Action: func(_ context.Context, _ *cli.Command) error {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(registry.DefaultNodeSpecs().All())
		},
	}
}
