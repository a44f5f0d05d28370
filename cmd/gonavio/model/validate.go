package model

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/craftworksgmbh/gonavio/pkg/validate"
)

func NewValidateCmd() *cobra.Command {
	sizeLimit := validate.DefaultSizeLimitBytes
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "validate a packaged model directory and its archive",
		Example: `
  gonavio validate ./mymodel ./mymodel.zip
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := BaseContext()
			defer cancel()
			if len(args) < 2 {
				return errors.New("model directory and archive arguments are required")
			}
			validator := validate.New(validate.Options{SizeLimitBytes: &sizeLimit})
			return validator.Run(ctx, nil, args[0], args[1])
		},
	}
	cmd.Flags().Int64Var(&sizeLimit, "size-limit", sizeLimit, "soft archive size limit in bytes")
	return cmd
}
