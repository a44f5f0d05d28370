package pack

import (
	"fmt"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/types"
)

var (
	acceptedExplanations = []string{types.ExplanationsDisabled, types.ExplanationsDefault, types.ExplanationsPlotly}
	acceptedOODDetection = []string{types.OODDetectionDisabled, types.OODDetectionDefault}
)

func checkEnum(value string, accepted []string, name string) error {
	for _, candidate := range accepted {
		if value == candidate {
			return nil
		}
	}
	return errors.NewConfigInvalidError(fmt.Sprintf("%s config must be one of %v", name, accepted))
}

// AddMetadata rewrites the model descriptor with a metadata section derived
// from the registered artifacts. All argument validation happens before the
// descriptor is read, so an invalid mode never leaves a partial write behind.
// Empty modes default to "default". Idempotent per call given identical
// inputs.
func AddMetadata(modelDir string, dataset *types.DatasetSpec, explanations string, oodd string, numGPUs int) error {
	if explanations == "" {
		explanations = types.ExplanationsDefault
	}
	if err := checkEnum(explanations, acceptedExplanations, "explanations"); err != nil {
		return err
	}
	if oodd == "" {
		oodd = types.OODDetectionDefault
	}
	if err := checkEnum(oodd, acceptedOODDetection, "oodd"); err != nil {
		return err
	}
	if numGPUs < 0 {
		return errors.NewConfigInvalidError("num_gpus cannot be negative")
	}

	descriptor, err := framework.ReadDescriptor(modelDir)
	if err != nil {
		return err
	}

	metadata := map[string]interface{}{
		"request_schema": map[string]interface{}{
			"path": descriptor.ArtifactPath(ExampleRequestKey),
		},
		"explanations": explanations,
		"oodDetection": oodd,
	}
	if dataset != nil {
		metadata["dataset"] = map[string]interface{}{
			"name": dataset.Name,
			"path": descriptor.ArtifactPath(DatasetKey),
		}
	}
	if numGPUs > 0 {
		metadata["gpus"] = numGPUs
	}
	descriptor["metadata"] = metadata

	return framework.WriteDescriptor(modelDir, descriptor)
}
