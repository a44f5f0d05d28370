package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
	"github.com/craftworksgmbh/gonavio/pkg/types"
)

const (
	// ExampleRequestKey is the artifact name of the registered example
	// request.
	ExampleRequestKey = "example_request"
	// DatasetKey is the artifact name of the optional dataset CSV.
	DatasetKey = "dataset"
)

// ProcessPath strips a file:// prefix from a local path.
func ProcessPath(path string) string {
	return strings.TrimPrefix(path, "file://")
}

// RegisterExampleRequest ensures the artifact map carries an example request.
// Exactly one of example or an existing example_request artifact entry must
// be supplied. An inline example is serialized to tmpDir and referenced from
// the returned map; the input map is not mutated.
func RegisterExampleRequest(tmpDir string, example *types.ExampleRequest, artifacts map[string]string) (map[string]string, error) {
	if example == nil && artifacts == nil {
		return nil, errors.NewPreconditionFailedError(
			fmt.Sprintf("either %s or artifacts need to be set", ExampleRequestKey))
	}

	result := make(map[string]string, len(artifacts)+1)
	for name, path := range artifacts {
		result[name] = path
	}

	if example != nil {
		file := filepath.Join(tmpDir, ExampleRequestKey+".json")
		content, err := json.MarshalIndent(example, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("encode example request: %w", err)
		}
		if err := os.WriteFile(file, content, 0o644); err != nil {
			return nil, fmt.Errorf("write example request:%s %w", file, err)
		}
		result[ExampleRequestKey] = file
		return result, nil
	}

	path, ok := result[ExampleRequestKey]
	if !ok {
		return nil, errors.NewPreconditionFailedError(
			fmt.Sprintf("if %s argument is not set, it needs to be present in artifacts", ExampleRequestKey))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewFileNotFoundError(path)
	}
	return result, nil
}

// CheckDatasetSpec validates that a dataset spec carries the required name
// and path fields.
func CheckDatasetSpec(spec types.DatasetSpec) error {
	if spec.Name == "" {
		return errors.NewConfigInvalidError("data spec is missing field name")
	}
	if spec.Path == "" {
		return errors.NewConfigInvalidError("data spec is missing field path")
	}
	return nil
}
