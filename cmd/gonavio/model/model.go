package model

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/craftworksgmbh/gonavio/pkg/version"
)

func NewGonavioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gonavio",
		Short:   "package and validate models for the navio platform",
		Version: version.Get().String(),
	}
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewPackCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewServeCheckCmd())
	return cmd
}

func BaseContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	if os.Getenv("DEBUG") == "1" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		ctx = logr.NewContext(ctx, stdr.NewWithOptions(log.Default(), stdr.Options{LogCaller: stdr.Error}))
	}
	return ctx, cancel
}
