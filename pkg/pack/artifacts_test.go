package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
	"github.com/craftworksgmbh/gonavio/pkg/types"
)

func TestRegisterExampleRequestNegative(t *testing.T) {
	tests := []struct {
		name      string
		example   *types.ExampleRequest
		artifacts map[string]string
		wantCode  errors.ErrCode
	}{
		{
			name:     "neither example nor artifacts",
			wantCode: errors.ErrCodePreconditionFailed,
		},
		{
			name:      "artifacts without example request entry",
			artifacts: map[string]string{"model_path": "a_path"},
			wantCode:  errors.ErrCodePreconditionFailed,
		},
		{
			name:      "referenced file does not exist",
			artifacts: map[string]string{ExampleRequestKey: "non_existent_path"},
			wantCode:  errors.ErrCodeFileNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RegisterExampleRequest(t.TempDir(), tt.example, tt.artifacts)
			if err == nil {
				t.Fatal("RegisterExampleRequest() = nil error")
			}
			if !errors.IsErrCode(err, tt.wantCode) {
				t.Errorf("RegisterExampleRequest() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestRegisterExampleRequestInline(t *testing.T) {
	example, err := types.MakeExampleRequest(
		map[string]interface{}{"a": 1.0, "target": 2.0}, "target", "", 0)
	if err != nil {
		t.Fatal(err)
	}

	tmpDir := t.TempDir()
	artifacts, err := RegisterExampleRequest(tmpDir, &example, map[string]string{"extra": "some_path"})
	if err != nil {
		t.Fatalf("RegisterExampleRequest() error = %v", err)
	}

	path, ok := artifacts[ExampleRequestKey]
	if !ok {
		t.Fatalf("artifacts are missing %s: %v", ExampleRequestKey, artifacts)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("registered example request is not readable: %v", err)
	}
	if artifacts["extra"] != "some_path" {
		t.Errorf("existing artifact entries must be preserved: %v", artifacts)
	}
}

func TestRegisterExampleRequestReferenced(t *testing.T) {
	file := filepath.Join(t.TempDir(), "example_request.json")
	if err := os.WriteFile(file, []byte(`{"featureColumns": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	artifacts, err := RegisterExampleRequest(t.TempDir(), nil, map[string]string{ExampleRequestKey: file})
	if err != nil {
		t.Fatalf("RegisterExampleRequest() error = %v", err)
	}
	if artifacts[ExampleRequestKey] != file {
		t.Errorf("referenced path must be kept, got %v", artifacts)
	}
}

func TestCheckDatasetSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    types.DatasetSpec
		wantErr bool
	}{
		{"valid", types.DatasetSpec{Name: "training", Path: "data.csv"}, false},
		{"missing name", types.DatasetSpec{Path: "data.csv"}, true},
		{"missing path", types.DatasetSpec{Name: "training"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckDatasetSpec(tt.spec); (err != nil) != tt.wantErr {
				t.Errorf("CheckDatasetSpec() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
