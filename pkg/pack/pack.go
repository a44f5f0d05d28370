// Package pack assembles a packaged model artifact into a deployable zip
// archive: it registers the example request, delegates serialization to the
// packaging framework, patches the descriptor metadata and archives the
// resulting directory.
package pack

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"k8s.io/utils/pointer"

	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/types"
	"github.com/craftworksgmbh/gonavio/pkg/validate"
)

// Spec is everything needed to produce a deployable model archive.
type Spec struct {
	// Path is where the model directory is produced; the archive lands at
	// Path + ".zip".
	Path string
	// Model is the model object handed to the framework for serialization.
	Model framework.Model
	// ExampleRequest is the inline example request. If nil, Artifacts must
	// reference an example_request file.
	ExampleRequest *types.ExampleRequest
	// Artifacts maps artifact names to local files.
	Artifacts map[string]string
	// Environment describes the runtime environment.
	Environment EnvironmentSpec
	// CodePaths lists local source directories to bundle with the model.
	CodePaths []string
	// SysDependencies lists system packages, written one per line.
	SysDependencies []string

	Dataset      *types.DatasetSpec
	Explanations string
	OODDetection string
	NumGPUs      int

	// Validate runs the model validator against the fresh archive, on by
	// default.
	Validate *bool
	// SizeLimitBytes overrides the archive size warning threshold.
	SizeLimitBytes *int64
}

const (
	appendToFailedMsg    = " To disable validation set Validate to false."
	appendToSucceededMsg = " Note: please refer to serving.Check for testing the model serving."
)

// ToArchive builds the deployable archive for spec and returns the zip path.
// The model directory at spec.Path is replaced.
func ToArchive(ctx context.Context, fw framework.Framework, spec Spec) (string, error) {
	log := logr.FromContextOrDiscard(ctx)

	path := ProcessPath(spec.Path)
	zipPath := path + ".zip"

	if err := CheckCodePaths(spec.CodePaths, path); err != nil {
		return "", err
	}
	if err := ScrubCaches(spec.CodePaths); err != nil {
		return "", err
	}

	artifacts := make(map[string]string, len(spec.Artifacts)+2)
	for name, value := range spec.Artifacts {
		artifacts[name] = ProcessPath(value)
	}
	if spec.Dataset != nil {
		if err := CheckDatasetSpec(*spec.Dataset); err != nil {
			return "", err
		}
		artifacts[DatasetKey] = ProcessPath(spec.Dataset.Path)
	}

	environment, environmentFile, err := BuildEnvironment(spec.Environment)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "gonavio-pack-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	if spec.ExampleRequest == nil && len(artifacts) == 0 {
		artifacts = nil
	}
	artifacts, err = RegisterExampleRequest(tmpDir, spec.ExampleRequest, artifacts)
	if err != nil {
		return "", err
	}

	if err := os.RemoveAll(path); err != nil {
		return "", err
	}
	if err := fw.SaveModel(ctx, framework.SaveSpec{
		Path:            path,
		Model:           spec.Model,
		Environment:     environment,
		EnvironmentFile: environmentFile,
		Artifacts:       artifacts,
		CodePaths:       spec.CodePaths,
	}); err != nil {
		return "", fmt.Errorf("save model: %w", err)
	}

	if err := AddMetadata(path, spec.Dataset, spec.Explanations, spec.OODDetection, spec.NumGPUs); err != nil {
		return "", err
	}
	if err := WriteSysDependencies(path, spec.SysDependencies); err != nil {
		return "", err
	}

	dgst, err := Zip(ctx, path, zipPath)
	if err != nil {
		return "", fmt.Errorf("archive model:%s %w", zipPath, err)
	}
	log.V(1).Info("archived model", "path", zipPath, "digest", dgst)

	if pointer.BoolDeref(spec.Validate, true) {
		validator := validate.New(validate.Options{
			SizeLimitBytes:       spec.SizeLimitBytes,
			AppendToFailedMsg:    appendToFailedMsg,
			AppendToSucceededMsg: appendToSucceededMsg,
		})
		if err := validator.Run(ctx, fw, path, zipPath); err != nil {
			return "", err
		}
	}
	return zipPath, nil
}
