package types

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
)

const (
	ExplanationsDisabled = "disabled"
	ExplanationsDefault  = "default"
	ExplanationsPlotly   = "plotly"

	OODDetectionDisabled = "disabled"
	OODDetectionDefault  = "default"
)

const (
	TypeFloat     = "float"
	TypeString    = "string"
	TypeBool      = "bool"
	TypeTimestamp = "timestamp"
)

// ColumnSpec describes one column of an example request: its name, a sample
// value, the declared type and nullability.
type ColumnSpec struct {
	Name       string      `json:"name"`
	SampleData interface{} `json:"sampleData"`
	Type       string      `json:"type"`
	Nullable   bool        `json:"nullable"`
}

// ExampleRequest is the request contract registered alongside a packaged
// model. Target and datetime column names must differ from each other and
// from the feature columns.
type ExampleRequest struct {
	FeatureColumns    []ColumnSpec `json:"featureColumns"`
	TargetColumns     []ColumnSpec `json:"targetColumns,omitempty"`
	DateTimeColumn    *ColumnSpec  `json:"dateTimeColumn,omitempty"`
	MinimumNumberRows int          `json:"minimumNumberRows,omitempty"`
}

// DatasetSpec points the platform at a CSV used for default explanations and
// out of distribution detection.
type DatasetSpec struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type RequestSchemaRef struct {
	Path string `json:"path"`
}

// Metadata is the block injected into the packaged model descriptor. Created
// once at packaging time, immutable after.
type Metadata struct {
	RequestSchema RequestSchemaRef `json:"request_schema"`
	Dataset       *DatasetSpec     `json:"dataset,omitempty"`
	Explanations  string           `json:"explanations"`
	OODDetection  string           `json:"oodDetection"`
	GPUs          int              `json:"gpus,omitempty"`
}

func sampleType(value interface{}) (string, error) {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return TypeFloat, nil
	case string:
		return TypeString, nil
	case bool:
		return TypeBool, nil
	default:
		return "", errors.NewConfigInvalidError(fmt.Sprintf("unsupported sample value type %T", value))
	}
}

// MakeExampleRequest builds an example request from a single sample row.
// Feature columns are emitted in lexical column-name order so the result is
// deterministic.
func MakeExampleRequest(row map[string]interface{}, target string, datetimeColumn string, minRows int) (ExampleRequest, error) {
	if target == datetimeColumn {
		return ExampleRequest{}, errors.NewConfigInvalidError(
			"target column name must not be equal to that of datetime column")
	}

	columnSpec := func(name string, typename string) (ColumnSpec, error) {
		value, ok := row[name]
		if !ok {
			return ColumnSpec{}, errors.NewConfigInvalidError(fmt.Sprintf("row has no column %q", name))
		}
		if typename == "" {
			inferred, err := sampleType(value)
			if err != nil {
				return ColumnSpec{}, err
			}
			typename = inferred
		}
		return ColumnSpec{Name: name, SampleData: value, Type: typename, Nullable: false}, nil
	}

	names := make([]string, 0, len(row))
	for name := range row {
		if name != target && name != datetimeColumn {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	example := ExampleRequest{FeatureColumns: make([]ColumnSpec, 0, len(names))}
	for _, name := range names {
		spec, err := columnSpec(name, "")
		if err != nil {
			return ExampleRequest{}, err
		}
		example.FeatureColumns = append(example.FeatureColumns, spec)
	}

	targetSpec, err := columnSpec(target, "")
	if err != nil {
		return ExampleRequest{}, err
	}
	example.TargetColumns = []ColumnSpec{targetSpec}

	if datetimeColumn == "" {
		return example, nil
	}
	datetimeSpec, err := columnSpec(datetimeColumn, TypeTimestamp)
	if err != nil {
		return ExampleRequest{}, err
	}
	example.DateTimeColumn = &datetimeSpec

	if minRows == 0 {
		return example, nil
	}
	if minRows < 0 {
		return ExampleRequest{}, errors.NewConfigInvalidError(fmt.Sprintf("expected minRows > 0, got minRows = %d", minRows))
	}
	example.MinimumNumberRows = minRows
	return example, nil
}
