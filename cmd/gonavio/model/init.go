package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/craftworksgmbh/gonavio/pkg/types"
)

func NewInitCmd() *cobra.Command {
	force := false
	cmd := &cobra.Command{
		Use:   "init",
		Short: "scaffold a pack config at path",
		Example: `
  gonavio init .
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := BaseContext()
			defer cancel()
			if len(args) == 0 {
				return errors.New("at least one argument is required")
			}
			return InitPackConfig(ctx, args[0], force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force init")
	return cmd
}

func InitPackConfig(ctx context.Context, path string, force bool) error {
	configfile := filepath.Join(path, PackConfigFileName)
	if _, err := os.Stat(configfile); err == nil && !force {
		return fmt.Errorf("config %s already exists", configfile)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create pack directory:%s %w", path, err)
	}

	config := PackConfig{
		ExampleRequest: "example_request.json",
		Explanations:   types.ExplanationsDefault,
		OodDetection:   types.OODDetectionDefault,
	}
	configcontent, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode pack config %w", err)
	}
	if err := os.WriteFile(configfile, configcontent, 0o644); err != nil {
		return fmt.Errorf("write pack config:%s %w", configfile, err)
	}

	examplefile := filepath.Join(path, "example_request.json")
	if _, err := os.Stat(examplefile); errors.Is(err, os.ErrNotExist) {
		example, err := types.MakeExampleRequest(
			map[string]interface{}{"feature": 1.0, "target": 0.0}, "target", "", 0)
		if err != nil {
			return err
		}
		content, err := json.MarshalIndent(example, "", "    ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(examplefile, content, 0o644); err != nil {
			return fmt.Errorf("write example request:%s %w", examplefile, err)
		}
	}

	fmt.Printf("Pack config initialized in %s\n", path)
	return nil
}
