package model

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftworksgmbh/gonavio/pkg/serving"
)

func NewServeCheckCmd() *cobra.Command {
	port := serving.DefaultPort
	frameworkVersion := 2
	var command []string
	cmd := &cobra.Command{
		Use:   "serve-check",
		Short: "smoke test a packaged model through the framework's model server",
		Example: `
  gonavio serve-check ./mymodel --command "mlflow" --command "models" --command "serve" --command "-m" --command "./mymodel" --command "-p" --command "5001"
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := BaseContext()
			defer cancel()
			if len(args) == 0 {
				return errors.New("at least one argument is required")
			}
			if len(command) == 0 {
				return errors.New("a serve command is required, set --command")
			}
			if err := serving.Check(ctx, nil, args[0], serving.Options{
				Port:                  port,
				Command:               command,
				FrameworkMajorVersion: frameworkVersion,
			}); err != nil {
				return err
			}
			fmt.Println("Model serving check succeeded")
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", port, "port the model server listens on")
	cmd.Flags().IntVar(&frameworkVersion, "framework-version", frameworkVersion,
		"major version of the packaging framework, picks the request body encoding")
	cmd.Flags().StringArrayVar(&command, "command", nil, "serve command, one token per flag")
	return cmd
}
