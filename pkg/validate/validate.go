// Package validate checks a packaged model artifact against the platform's
// contracts before upload: descriptor metadata, example request, a
// load-and-predict round trip, output shape and archive size.
package validate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"k8s.io/utils/pointer"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/schemas"
	"github.com/craftworksgmbh/gonavio/pkg/serving"
	"github.com/craftworksgmbh/gonavio/pkg/types"
	"github.com/craftworksgmbh/gonavio/pkg/units"
)

// DefaultSizeLimitBytes is the soft archive size limit.
const DefaultSizeLimitBytes = int64(1_000_000_000)

const tag = "(gonavio model validation)"

type Stage string

const (
	StageMetadataCheck       Stage = "METADATA_CHECK"
	StageRequestSchemaCheck  Stage = "REQUEST_SCHEMA_CHECK"
	StageServingSmokeTest    Stage = "SERVING_SMOKE_TEST"
	StageDecoratorUsageCheck Stage = "DECORATOR_USAGE_CHECK"
	StageOutputShapeCheck    Stage = "OUTPUT_SHAPE_CHECK"
	StageSizeCheck           Stage = "SIZE_CHECK"
)

type stageStatus string

const (
	statusPassed  stageStatus = "passed"
	statusFailed  stageStatus = "failed"
	statusWarning stageStatus = "warning"
	statusSkipped stageStatus = "skipped"
)

type stageResult struct {
	Stage  Stage
	Status stageStatus
	Note   string
}

// Options configures a validation run.
type Options struct {
	// SizeLimitBytes overrides the soft archive size limit.
	SizeLimitBytes *int64
	// Out receives console messages, os.Stdout when nil.
	Out                  io.Writer
	AppendToFailedMsg    string
	AppendToSucceededMsg string
}

// Validator runs the validation stages in sequence, short-circuiting on the
// first hard failure.
type Validator struct {
	opts   Options
	out    io.Writer
	stages []stageResult
}

func New(opts Options) *Validator {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Validator{opts: opts, out: out}
}

func (v *Validator) record(stage Stage, status stageStatus, note string) {
	v.stages = append(v.stages, stageResult{Stage: stage, Status: status, Note: note})
}

func (v *Validator) warnf(format string, args ...interface{}) {
	fmt.Fprintf(v.out, "Warning: %s "+format+"\n", append([]interface{}{tag}, args...)...)
}

// Run validates the model directory and its archive. On failure the
// diagnostic notice is emitted exactly once and the triggering error is
// returned. A nil framework skips the stages that need the framework
// runtime.
func (v *Validator) Run(ctx context.Context, fw framework.Framework, modelDir string, modelZip string) error {
	v.stages = v.stages[:0]
	err := v.run(ctx, fw, modelDir, modelZip)
	if err != nil {
		fmt.Fprintf(v.out, "%s: Validation failed. Please fix the identified issues before uploading the model.%s\n",
			tag, v.opts.AppendToFailedMsg)
		v.report()
		return err
	}
	fmt.Fprintf(v.out, "%s: Validation succeeded.%s\n", tag, v.opts.AppendToSucceededMsg)
	v.report()
	return nil
}

func (v *Validator) run(ctx context.Context, fw framework.Framework, modelDir string, modelZip string) error {
	if err := v.validateMetadata(modelDir); err != nil {
		return err
	}

	if fw == nil {
		v.record(StageServingSmokeTest, statusSkipped, "packaging framework runtime not available")
		v.record(StageDecoratorUsageCheck, statusSkipped, "")
		v.record(StageOutputShapeCheck, statusSkipped, "")
	} else {
		model, output, err := v.runModelIO(ctx, fw, modelDir)
		if err != nil {
			return err
		}
		v.checkErrorWrapping(model)
		if err := v.verifyOutput(output); err != nil {
			return err
		}
	}

	return v.checkArchiveSize(modelZip)
}

// validateMetadata checks the descriptor metadata block and the registered
// example request against their schemas. Nested sample data only warns: the
// platform frontend cannot render it, and default ood/explanations do not
// support it.
func (v *Validator) validateMetadata(modelDir string) error {
	descriptor, err := framework.ReadDescriptor(modelDir)
	if err != nil {
		v.record(StageMetadataCheck, statusFailed, err.Error())
		return err
	}
	metadata := descriptor.Metadata()
	if err := schemas.Validate(metadata, schemas.Metadata, framework.DescriptorFileName); err != nil {
		v.record(StageMetadataCheck, statusFailed, err.Error())
		return err
	}
	v.record(StageMetadataCheck, statusPassed, "")

	// the raw document, not the typed struct: decoding would re-add zero
	// values for column fields the file does not carry
	example, err := serving.ReadExampleRequestDocument(modelDir)
	if err != nil {
		v.record(StageRequestSchemaCheck, statusFailed, err.Error())
		return err
	}
	if err := schemas.Validate(example, schemas.Request, "example request"); err != nil {
		v.record(StageRequestSchemaCheck, statusFailed, err.Error())
		return err
	}

	if !schemas.IsValid(example, schemas.FlatRequest) {
		v.record(StageRequestSchemaCheck, statusWarning, "nested model input")
		v.warnf("the nested model input is not supported by frontend rendering;" +
			" it will only be possible to see the example request as plain json" +
			" in the try-out or deployment views. Consider using a string" +
			" representation of the nested example in the example request json.")
		if defaultOODEnabled(metadata) || defaultExplanationEnabled(metadata) {
			v.warnf("default ood and explanations are not supported for nested model inputs.")
		}
	} else {
		v.record(StageRequestSchemaCheck, statusPassed, "")
	}
	return nil
}

func defaultOODEnabled(metadata map[string]interface{}) bool {
	mode, _ := metadata["oodDetection"].(string)
	_, hasData := metadata["dataset"]
	return mode == types.OODDetectionDefault && hasData
}

func defaultExplanationEnabled(metadata map[string]interface{}) bool {
	mode, _ := metadata["explanations"].(string)
	_, hasData := metadata["dataset"]
	return mode == types.ExplanationsDefault && hasData
}

// runModelIO loads the model through the framework and runs a prediction on
// the example request frame.
func (v *Validator) runModelIO(ctx context.Context, fw framework.Framework, modelDir string) (framework.Model, map[string]interface{}, error) {
	input, err := serving.ExampleFrame(modelDir)
	if err != nil {
		v.record(StageServingSmokeTest, statusFailed, err.Error())
		return nil, nil, err
	}
	model, err := fw.LoadModel(ctx, modelDir)
	if err != nil {
		v.record(StageServingSmokeTest, statusFailed, err.Error())
		return nil, nil, fmt.Errorf("load model: %w", err)
	}
	output, err := model.Predict(ctx, input)
	if err != nil {
		v.record(StageServingSmokeTest, statusFailed, err.Error())
		return nil, nil, fmt.Errorf("run prediction: %w", err)
	}
	v.record(StageServingSmokeTest, statusPassed, "")
	return model, output, nil
}

// checkErrorWrapping is advisory only: a model that does not convert
// prediction failures into the structured error payload still validates,
// but platform users lose descriptive errors.
func (v *Validator) checkErrorWrapping(model framework.Model) {
	if wrapped, ok := model.(framework.ErrorWrapped); ok && wrapped.WrapsPredictionErrors() {
		v.record(StageDecoratorUsageCheck, statusPassed, "")
		return
	}
	v.record(StageDecoratorUsageCheck, statusWarning, "prediction errors are not wrapped")
	v.warnf("please convert prediction failures into the structured error payload"+
		" (keys %v), which lets the platform show descriptive errors for ease of debugging.",
		types.ErrorKeys)
}

// VerifyOutput checks a model output mapping: it must carry a prediction
// (schema constrained to a bare scalar or a flat array of one scalar type)
// or exactly the error key set.
func VerifyOutput(output map[string]interface{}) error {
	if output == nil {
		return errors.NewValidationFailedError("model output", "model output has to be a mapping")
	}
	if _, ok := output[types.PredictionKey]; ok {
		return schemas.Validate(output, schemas.Prediction, "model output")
	}
	if !types.IsErrorOutput(output) {
		return errors.NewValidationFailedError("model output", fmt.Sprintf(
			"the model output has to contain %q as key for the target, independent of"+
				" the target name in the example request, or exactly the keys %v if an error occurred; got keys %v",
			types.PredictionKey, types.ErrorKeys, types.OutputKeys(output)))
	}
	return nil
}

func (v *Validator) verifyOutput(output map[string]interface{}) error {
	if err := VerifyOutput(output); err != nil {
		if _, ok := output[types.PredictionKey]; ok {
			fmt.Fprintf(v.out, "ERROR: %s the value of model_output[%q] must be a scalar or a flat"+
				" array of one scalar type (cannot be nested or of mixed type)\n", tag, types.PredictionKey)
		}
		v.record(StageOutputShapeCheck, statusFailed, err.Error())
		return err
	}
	v.record(StageOutputShapeCheck, statusPassed, "")
	return nil
}

// checkArchiveSize fails on an unreadable archive and warns above the soft
// limit.
func (v *Validator) checkArchiveSize(modelZip string) error {
	limit := pointer.Int64Deref(v.opts.SizeLimitBytes, DefaultSizeLimitBytes)
	info, err := os.Stat(modelZip)
	if err != nil {
		notFound := errors.NewFileNotFoundError(modelZip)
		v.record(StageSizeCheck, statusFailed, notFound.Error())
		return notFound
	}
	if info.Size() > limit {
		v.record(StageSizeCheck, statusWarning, fmt.Sprintf("archive is %s", units.HumanSize(float64(info.Size()))))
		v.warnf("the default model archive size limit is %s. Please reduce the size"+
			" or contact the support team to increase the limit.", units.HumanSize(float64(limit)))
		return nil
	}
	v.record(StageSizeCheck, statusPassed, "")
	return nil
}

func (v *Validator) report() {
	t := table.NewWriter()
	t.SetOutputMirror(v.out)
	t.AppendHeader(table.Row{"STAGE", "STATUS", "NOTE"})
	for _, stage := range v.stages {
		t.AppendRow(table.Row{stage.Stage, stage.Status, stage.Note})
	}
	t.Render()
}
