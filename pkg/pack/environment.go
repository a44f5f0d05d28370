package pack

import (
	"os"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
)

// DefaultPythonVersion pins the runtime python when no external environment
// file is supplied.
const DefaultPythonVersion = "3.9"

// EnvironmentSpec describes the runtime environment of the packaged model.
// At least one of PipPackages or EnvironmentFile must be set. When
// EnvironmentFile is set the package and channel lists are ignored.
type EnvironmentSpec struct {
	PipPackages     []string
	CondaPackages   []string
	CondaChannels   []string
	EnvironmentFile string
	PythonVersion   string
}

// BuildEnvironment returns either the environment mapping the framework
// should serialize, or the external environment file to use verbatim.
func BuildEnvironment(spec EnvironmentSpec) (map[string]interface{}, string, error) {
	if spec.EnvironmentFile != "" {
		if _, err := os.Stat(spec.EnvironmentFile); err != nil {
			return nil, "", errors.NewFileNotFoundError(spec.EnvironmentFile)
		}
		return nil, spec.EnvironmentFile, nil
	}
	if spec.PipPackages == nil {
		return nil, "", errors.NewPreconditionFailedError(
			"either pip packages or an environment file need to be set")
	}

	python := spec.PythonVersion
	if python == "" {
		python = DefaultPythonVersion
	}
	channels := append([]string{"defaults", "conda-forge"}, spec.CondaChannels...)
	dependencies := []interface{}{"python=" + python}
	for _, pkg := range spec.CondaPackages {
		dependencies = append(dependencies, pkg)
	}
	dependencies = append(dependencies, map[string]interface{}{"pip": spec.PipPackages})

	return map[string]interface{}{
		"name":         "venv",
		"channels":     channels,
		"dependencies": dependencies,
	}, "", nil
}
