package model

const PackConfigFileName = "gonavio.yaml"

// PackConfig is the pack configuration file read by the CLI. It finishes a
// model directory the packaging framework already serialized.
type PackConfig struct {
	// ExampleRequest is the path of the example request json to register. If
	// empty the descriptor must already reference one.
	ExampleRequest string `yaml:"exampleRequest"`

	Dataset *DatasetConfig `yaml:"dataset,omitempty"`

	Explanations string `yaml:"explanations"`
	OodDetection string `yaml:"oodDetection"`
	Gpus         int    `yaml:"gpus"`

	SysDependencies []string `yaml:"sysDependencies"`

	// Validate runs the static validation stages after archiving, on by
	// default.
	Validate *bool `yaml:"validate"`
	// SizeLimitBytes overrides the soft archive size warning threshold.
	SizeLimitBytes *int64 `yaml:"sizeLimitBytes"`
}

type DatasetConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}
