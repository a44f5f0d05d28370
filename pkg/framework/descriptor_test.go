package framework

import (
	"os"
	"path/filepath"
	"testing"
)

const descriptorFixture = `flavors:
  python_function:
    artifacts:
      example_request:
        path: artifacts/example_request.json
      dataset:
        path: artifacts/data.csv
    loader_module: mlflow.pyfunc.model
utc_time_created: '2022-01-01 00:00:00'
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(descriptorFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestDescriptorField(t *testing.T) {
	dir := writeFixture(t)
	descriptor, err := ReadDescriptor(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want interface{}
	}{
		{"flavors.python_function.artifacts.example_request.path", "artifacts/example_request.json"},
		{"flavors.python_function.loader_module", "mlflow.pyfunc.model"},
		{"flavors.python_function.missing", nil},
		{"flavors.python_function.loader_module.deeper", nil},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := descriptor.Field(tt.path); got != tt.want {
				t.Errorf("Field(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if got := descriptor.ArtifactPath("dataset"); got != "artifacts/data.csv" {
		t.Errorf("ArtifactPath(dataset) = %q, want artifacts/data.csv", got)
	}
	if got := descriptor.ArtifactPath("missing"); got != "" {
		t.Errorf("ArtifactPath(missing) = %q, want empty", got)
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	dir := writeFixture(t)
	descriptor, err := ReadDescriptor(dir)
	if err != nil {
		t.Fatal(err)
	}
	descriptor["metadata"] = map[string]interface{}{"explanations": "plotly"}
	if err := WriteDescriptor(dir, descriptor); err != nil {
		t.Fatal(err)
	}

	reread, err := ReadDescriptor(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := reread.StringField("metadata.explanations"); got != "plotly" {
		t.Errorf("metadata.explanations = %q, want plotly", got)
	}
	if got := reread.ArtifactPath("example_request"); got != "artifacts/example_request.json" {
		t.Errorf("artifact path lost in round trip: %q", got)
	}
}

func TestReadDescriptorMissing(t *testing.T) {
	if _, err := ReadDescriptor(t.TempDir()); err == nil {
		t.Error("ReadDescriptor() = nil error for missing descriptor")
	}
}
