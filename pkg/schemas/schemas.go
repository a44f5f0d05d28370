// Package schemas holds the JSON-schema contracts a packaged model must
// satisfy before upload: the descriptor metadata block, the example request
// and the prediction output.
package schemas

import (
	_ "embed"

	"github.com/xeipuuv/gojsonschema"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
)

//go:embed metadata.schema.json
var metadataSchema []byte

//go:embed request.schema.json
var requestSchema []byte

//go:embed request_flat.schema.json
var flatRequestSchema []byte

//go:embed prediction.schema.json
var predictionSchema []byte

var (
	// Metadata constrains the metadata block of the model descriptor.
	Metadata = mustCompile(metadataSchema)
	// Request constrains the registered example request document.
	Request = mustCompile(requestSchema)
	// FlatRequest additionally restricts sample values to scalars. A request
	// that passes Request but fails FlatRequest carries nested sample data.
	FlatRequest = mustCompile(flatRequestSchema)
	// Prediction constrains model output: the prediction value is a bare
	// scalar or a flat array of one scalar type.
	Prediction = mustCompile(predictionSchema)
)

func mustCompile(raw []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(err)
	}
	return schema
}

// Validate checks document against schema and returns a validation error
// naming the document on mismatch.
func Validate(document interface{}, schema *gojsonschema.Schema, name string) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return errors.NewValidationFailedError(name, err.Error())
	}
	if !result.Valid() {
		detail := ""
		if errs := result.Errors(); len(errs) > 0 {
			detail = errs[0].String()
		}
		return errors.NewValidationFailedError(name, detail)
	}
	return nil
}

func IsValid(document interface{}, schema *gojsonschema.Schema) bool {
	result, err := schema.Validate(gojsonschema.NewGoLoader(document))
	return err == nil && result.Valid()
}
