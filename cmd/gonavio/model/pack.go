package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/pack"
	"github.com/craftworksgmbh/gonavio/pkg/types"
	"github.com/craftworksgmbh/gonavio/pkg/validate"
)

func NewPackCmd() *cobra.Command {
	configfile := PackConfigFileName
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "finish a framework-saved model directory into a deployable zip",
		Example: `
  gonavio pack ./mymodel
  gonavio pack ./mymodel --config mymodel/gonavio.yaml
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := BaseContext()
			defer cancel()
			if len(args) == 0 {
				return errors.New("at least one argument is required")
			}
			zip, err := PackModelDir(ctx, args[0], configfile)
			if err != nil {
				return err
			}
			fmt.Printf("Packed model archive %s\n", zip)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configfile, "config", "c", configfile, "pack config file")
	return cmd
}

func readPackConfig(configfile string) (PackConfig, error) {
	content, err := os.ReadFile(configfile)
	if err != nil {
		return PackConfig{}, fmt.Errorf("read pack config:%s %w", configfile, err)
	}
	var config PackConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return PackConfig{}, fmt.Errorf("parse pack config:%s %w", configfile, err)
	}
	return config, nil
}

// PackModelDir finishes a model directory the packaging framework already
// serialized: registers artifacts into the descriptor, patches the metadata
// section, writes the system dependency manifest and archives the directory.
// Validation is limited to the static stages because no framework runtime is
// attached to the CLI.
func PackModelDir(ctx context.Context, dir string, configfile string) (string, error) {
	config, err := readPackConfig(configfile)
	if err != nil {
		return "", err
	}

	if config.ExampleRequest != "" {
		if err := registerArtifactFile(dir, pack.ExampleRequestKey, config.ExampleRequest, "example_request.json"); err != nil {
			return "", err
		}
	}

	var dataset *types.DatasetSpec
	if config.Dataset != nil {
		dataset = &types.DatasetSpec{Name: config.Dataset.Name, Path: config.Dataset.Path}
		if err := pack.CheckDatasetSpec(*dataset); err != nil {
			return "", err
		}
		if err := registerArtifactFile(dir, pack.DatasetKey, dataset.Path, filepath.Base(dataset.Path)); err != nil {
			return "", err
		}
	}

	if err := pack.AddMetadata(dir, dataset, config.Explanations, config.OodDetection, config.Gpus); err != nil {
		return "", err
	}
	if err := pack.WriteSysDependencies(dir, config.SysDependencies); err != nil {
		return "", err
	}

	zipPath := dir + ".zip"
	if _, err := pack.Zip(ctx, dir, zipPath); err != nil {
		return "", fmt.Errorf("archive model:%s %w", zipPath, err)
	}

	if config.Validate == nil || *config.Validate {
		validator := validate.New(validate.Options{SizeLimitBytes: config.SizeLimitBytes})
		if err := validator.Run(ctx, nil, dir, zipPath); err != nil {
			return "", err
		}
	}
	return zipPath, nil
}

// registerArtifactFile copies a local file into the model directory's
// artifacts and records it in the descriptor, the way the framework does at
// save time.
func registerArtifactFile(modelDir string, name string, src string, filename string) error {
	descriptor, err := framework.ReadDescriptor(modelDir)
	if err != nil {
		return err
	}

	relpath := filepath.Join("artifacts", filename)
	dst := filepath.Join(modelDir, relpath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := copyFile(pack.ProcessPath(src), dst); err != nil {
		return err
	}

	flavors, ok := descriptor["flavors"].(map[string]interface{})
	if !ok {
		flavors = map[string]interface{}{}
		descriptor["flavors"] = flavors
	}
	pyfunc, ok := flavors["python_function"].(map[string]interface{})
	if !ok {
		pyfunc = map[string]interface{}{}
		flavors["python_function"] = pyfunc
	}
	artifacts, ok := pyfunc["artifacts"].(map[string]interface{})
	if !ok {
		artifacts = map[string]interface{}{}
		pyfunc["artifacts"] = artifacts
	}
	artifacts[name] = map[string]interface{}{"path": relpath}

	return framework.WriteDescriptor(modelDir, descriptor)
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
