package pack

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v4"
	"github.com/opencontainers/go-digest"
)

// Zip archives dir into intofile as a zip and returns the canonical digest
// of the archive stream.
func Zip(ctx context.Context, dir string, intofile string) (digest.Digest, error) {
	files, err := archiver.FilesFromDisk(
		&archiver.FromDiskOptions{ClearAttributes: true},
		map[string]string{dir + string(os.PathSeparator): ""},
	)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(intofile), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(intofile)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d := digest.Canonical.Digester()
	if err := (archiver.Zip{}).Archive(ctx, io.MultiWriter(f, d.Hash()), files); err != nil {
		return "", err
	}
	return d.Digest(), nil
}
