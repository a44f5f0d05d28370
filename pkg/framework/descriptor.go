package framework

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// DescriptorFileName is the framework's model descriptor inside a packaged
// model directory.
const DescriptorFileName = "MLmodel"

// Descriptor is the parsed model descriptor. The framework owns most of its
// content; gonavio reads artifact locations from it and patches a metadata
// section into it.
type Descriptor map[string]interface{}

func DescriptorPath(modelDir string) string {
	return filepath.Join(modelDir, DescriptorFileName)
}

func ReadDescriptor(modelDir string) (Descriptor, error) {
	content, err := os.ReadFile(DescriptorPath(modelDir))
	if err != nil {
		return nil, fmt.Errorf("read model descriptor: %w", err)
	}
	var descriptor Descriptor
	if err := yaml.Unmarshal(content, &descriptor); err != nil {
		return nil, fmt.Errorf("parse model descriptor:%s %w", DescriptorFileName, err)
	}
	return descriptor, nil
}

// WriteDescriptor overwrites the descriptor file in place. Not safe for
// concurrent writers on the same path.
func WriteDescriptor(modelDir string, descriptor Descriptor) error {
	content, err := yaml.Marshal(descriptor)
	if err != nil {
		return fmt.Errorf("encode model descriptor: %w", err)
	}
	if err := os.WriteFile(DescriptorPath(modelDir), content, 0o644); err != nil {
		return fmt.Errorf("write model descriptor:%s %w", DescriptorFileName, err)
	}
	return nil
}

// Field resolves a dotted key path, nil when any segment is absent.
func (d Descriptor) Field(path string) interface{} {
	keys := strings.Split(path, ".")
	var value interface{} = map[string]interface{}(d)
	for _, key := range keys {
		section, ok := value.(map[string]interface{})
		if !ok {
			return nil
		}
		value = section[key]
	}
	return value
}

// StringField is Field narrowed to string values, empty when absent.
func (d Descriptor) StringField(path string) string {
	value, _ := d.Field(path).(string)
	return value
}

// ArtifactPath returns the descriptor-recorded path of a named artifact,
// relative to the model directory.
func (d Descriptor) ArtifactPath(name string) string {
	return d.StringField("flavors.python_function.artifacts." + name + ".path")
}

// Metadata returns the patched metadata section, nil before patching.
func (d Descriptor) Metadata() map[string]interface{} {
	section, _ := d.Field("metadata").(map[string]interface{})
	return section
}
