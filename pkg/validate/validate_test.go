package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/types"
)

type fakeFramework struct {
	output  map[string]interface{}
	wrapped bool
}

func (f *fakeFramework) SaveModel(ctx context.Context, spec framework.SaveSpec) error { return nil }

func (f *fakeFramework) LoadModel(ctx context.Context, dir string) (framework.Model, error) {
	return &fakeModel{output: f.output, wrapped: f.wrapped}, nil
}

func (f *fakeFramework) Version() string { return "2.0.0" }

func (f *fakeFramework) ServeCommand(dir string, port int) []string { return nil }

type fakeModel struct {
	output  map[string]interface{}
	wrapped bool
}

func (m *fakeModel) Predict(ctx context.Context, input framework.Frame) (map[string]interface{}, error) {
	if m.output != nil {
		return m.output, nil
	}
	predictions := make([]interface{}, len(input.Rows))
	for i := range input.Rows {
		predictions[i] = 1.0
	}
	return map[string]interface{}{types.PredictionKey: predictions}, nil
}

func (m *fakeModel) WrapsPredictionErrors() bool { return m.wrapped }

// validModelDir builds a model directory with a patched descriptor, a
// registered example request and a small archive next to it.
func validModelDir(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "model")
	if err := os.MkdirAll(filepath.Join(modelDir, "artifacts"), 0o755); err != nil {
		t.Fatal(err)
	}

	example, err := types.MakeExampleRequest(
		map[string]interface{}{"temperature": 21.5, "leakage": 0.0}, "leakage", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	content, err := json.Marshal(example)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modelDir, "artifacts", "example_request.json"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	descriptor := framework.Descriptor{
		"flavors": map[string]interface{}{
			"python_function": map[string]interface{}{
				"artifacts": map[string]interface{}{
					"example_request": map[string]interface{}{"path": "artifacts/example_request.json"},
				},
			},
		},
		"metadata": map[string]interface{}{
			"request_schema": map[string]interface{}{"path": "artifacts/example_request.json"},
			"explanations":   "default",
			"oodDetection":   "default",
		},
	}
	if err := framework.WriteDescriptor(modelDir, descriptor); err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(dir, "model.zip")
	if err := os.WriteFile(zipPath, []byte("zip-content"), 0o644); err != nil {
		t.Fatal(err)
	}
	return modelDir, zipPath
}

func TestRunSuccess(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	out := &bytes.Buffer{}
	validator := New(Options{Out: out, AppendToSucceededMsg: " Succeeded !!!"})

	err := validator.Run(context.Background(), &fakeFramework{wrapped: true}, modelDir, zipPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Validation succeeded. Succeeded !!!") {
		t.Errorf("success message missing from output:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Validation failed") {
		t.Errorf("failure message must not appear on success:\n%s", out.String())
	}
}

func TestRunFailureMessageEmittedOnce(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	out := &bytes.Buffer{}
	validator := New(Options{Out: out, AppendToFailedMsg: " Failed !!!"})
	fw := &fakeFramework{output: map[string]interface{}{"foo": 1.0}}

	err := validator.Run(context.Background(), fw, modelDir, zipPath)
	if !errors.IsErrCode(err, errors.ErrCodeValidationFailed) {
		t.Fatalf("Run() error = %v, want VALIDATION_FAILED", err)
	}
	if got := strings.Count(out.String(), "Validation failed"); got != 1 {
		t.Errorf("failure message emitted %d times, want exactly once:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "Failed !!!") {
		t.Errorf("appended failure message missing:\n%s", out.String())
	}
}

func TestRunMetadataFailure(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	descriptor, err := framework.ReadDescriptor(modelDir)
	if err != nil {
		t.Fatal(err)
	}
	delete(descriptor, "metadata")
	if err := framework.WriteDescriptor(modelDir, descriptor); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	err = New(Options{Out: out}).Run(context.Background(), &fakeFramework{}, modelDir, zipPath)
	if !errors.IsErrCode(err, errors.ErrCodeValidationFailed) {
		t.Errorf("Run() error = %v, want VALIDATION_FAILED", err)
	}
}

func TestRunRequestSchemaFailure(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	// a column carrying only a name must fail, the absent fields must not be
	// filled in by decoding into the typed struct
	partial := []byte(`{"featureColumns": [{"name": "temperature"}]}`)
	if err := os.WriteFile(filepath.Join(modelDir, "artifacts", "example_request.json"), partial, 0o644); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	err := New(Options{Out: out}).Run(context.Background(), &fakeFramework{wrapped: true}, modelDir, zipPath)
	if !errors.IsErrCode(err, errors.ErrCodeValidationFailed) {
		t.Fatalf("Run() error = %v, want VALIDATION_FAILED", err)
	}
	if !strings.Contains(out.String(), string(StageRequestSchemaCheck)) {
		t.Errorf("stage report missing:\n%s", out.String())
	}
}

func TestRunMissingArchive(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	if err := os.Remove(zipPath); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	err := New(Options{Out: out}).Run(context.Background(), &fakeFramework{wrapped: true}, modelDir, zipPath)
	if !errors.IsErrCode(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Run() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRunWarnsWithoutErrorWrapping(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	out := &bytes.Buffer{}

	err := New(Options{Out: out}).Run(context.Background(), &fakeFramework{wrapped: false}, modelDir, zipPath)
	if err != nil {
		t.Fatalf("Run() error = %v, the error wrapping check is advisory only", err)
	}
	if !strings.Contains(out.String(), "Warning") {
		t.Errorf("missing error wrapping warning:\n%s", out.String())
	}
}

func TestRunSizeWarning(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	out := &bytes.Buffer{}
	limit := int64(1)

	err := New(Options{Out: out, SizeLimitBytes: &limit}).Run(
		context.Background(), &fakeFramework{wrapped: true}, modelDir, zipPath)
	if err != nil {
		t.Fatalf("Run() error = %v, oversized archives only warn", err)
	}
	if !strings.Contains(out.String(), "size limit") {
		t.Errorf("missing size warning:\n%s", out.String())
	}
}

func TestRunWithoutFramework(t *testing.T) {
	modelDir, zipPath := validModelDir(t)
	out := &bytes.Buffer{}

	if err := New(Options{Out: out}).Run(context.Background(), nil, modelDir, zipPath); err != nil {
		t.Fatalf("Run() error = %v, static stages must pass without a framework", err)
	}
	if !strings.Contains(out.String(), string(StageServingSmokeTest)) {
		t.Errorf("stage report missing:\n%s", out.String())
	}
}

func TestVerifyOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  map[string]interface{}
		wantErr bool
	}{
		{"prediction array", map[string]interface{}{"prediction": []interface{}{1.0, 2.0}}, false},
		{"prediction with extras", map[string]interface{}{"prediction": []interface{}{1.0}, "extra": "info"}, false},
		{"error keys", map[string]interface{}{"error_code": "E", "message": "m", "stack_trace": "t"}, false},
		{"nil output", nil, true},
		{"missing prediction and error keys", map[string]interface{}{"foo": 1}, true},
		{"partial error keys", map[string]interface{}{"error_code": "E", "message": "m"}, true},
		{"mixed prediction array", map[string]interface{}{"prediction": []interface{}{1.0, "a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifyOutput(tt.output); (err != nil) != tt.wantErr {
				t.Errorf("VerifyOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultModeHelpers(t *testing.T) {
	metadata := map[string]interface{}{
		"oodDetection": "default",
		"explanations": "disabled",
		"dataset":      map[string]interface{}{"name": "n", "path": "p"},
	}
	if !defaultOODEnabled(metadata) {
		t.Error("default ood with dataset must be enabled")
	}
	if defaultExplanationEnabled(metadata) {
		t.Error("disabled explanations must not count as enabled")
	}
	delete(metadata, "dataset")
	if defaultOODEnabled(metadata) {
		t.Error("default ood without dataset must not count as enabled")
	}
}
