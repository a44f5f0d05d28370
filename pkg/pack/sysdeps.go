package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SysDependenciesFileName is the newline-delimited system dependency
// manifest written next to the model descriptor.
const SysDependenciesFileName = "sys_dependencies.txt"

// WriteSysDependencies writes the system dependency manifest, one dependency
// per line. A nil list writes nothing.
func WriteSysDependencies(modelDir string, sysDependencies []string) error {
	if sysDependencies == nil {
		return nil
	}
	file := filepath.Join(modelDir, SysDependenciesFileName)
	content := strings.Join(sysDependencies, "\n")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write sys dependencies:%s %w", file, err)
	}
	return nil
}
