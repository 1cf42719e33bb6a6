// Package archive pulls single named files out of CI artifact archives.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// ErrEntryNotFound is returned when the archive has no entry with the requested name.
var ErrEntryNotFound = errors.New("entry not found in archive")

// ExtractFile returns the decompressed content of the entry called name.
// Matching is exact: no path cleaning and no case folding.
func ExtractFile(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	for _, file := range zr.File {
		if file.Name != name || file.FileInfo().IsDir() {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
		}
		return content, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}
