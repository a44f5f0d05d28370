// Package framework is the boundary to the model-packaging framework that
// performs the actual model serialization. The framework is consumed, never
// reimplemented: gonavio only adds artifacts and metadata around the model
// directory it produces.
package framework

import (
	"context"
	"strconv"
	"strings"
)

// Frame is the tabular input handed to a model's predict call.
type Frame struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"data"`
}

// Records renders the frame row-wise, one mapping per row.
func (f Frame) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(f.Rows))
	for _, row := range f.Rows {
		record := make(map[string]interface{}, len(f.Columns))
		for i, column := range f.Columns {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

// Model is a loaded, predict-capable model.
type Model interface {
	Predict(ctx context.Context, input Frame) (map[string]interface{}, error)
}

// ErrorWrapped marks models whose predict call converts failures into the
// structured error payload instead of returning a bare error. The validator
// warns when a model does not advertise this.
type ErrorWrapped interface {
	WrapsPredictionErrors() bool
}

// SaveSpec carries everything the framework needs to serialize a model.
type SaveSpec struct {
	// Path is the model directory to produce.
	Path string
	// Model is the model object to serialize.
	Model Model
	// Environment is the runtime environment mapping, exclusive with
	// EnvironmentFile.
	Environment map[string]interface{}
	// EnvironmentFile points at an externally maintained environment file.
	EnvironmentFile string
	// Artifacts maps artifact names to local files the framework copies into
	// the model directory and records in the descriptor.
	Artifacts map[string]string
	// CodePaths lists local source directories to bundle.
	CodePaths []string
}

// Framework is the packaging framework's save/load/serve surface.
type Framework interface {
	SaveModel(ctx context.Context, spec SaveSpec) error
	LoadModel(ctx context.Context, dir string) (Model, error)
	// Version is the framework version string, e.g. "2.3.1". The major
	// version decides the serving request encoding.
	Version() string
	// ServeCommand is the command line that serves the model directory on
	// the given port.
	ServeCommand(dir string, port int) []string
}

// MajorVersion extracts the leading major version from a version string,
// zero when unparsable.
func MajorVersion(version string) int {
	version = strings.TrimPrefix(version, "v")
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return major
}
