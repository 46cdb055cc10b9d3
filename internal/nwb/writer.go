package nwb

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"tether/internal/fileutil"
)

// Extension is the file suffix of serialized bundles.
const Extension = ".nwbm"

// Write serializes the document and writes it atomically: a complete
// bundle appears at path or nothing does, never a torn file.
func Write(path string, doc *Document) error {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle %s: %w", path, err)
	}
	return nil
}

// Read loads a serialized bundle.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	doc := &Document{}
	if err := msgpack.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return doc, nil
}
