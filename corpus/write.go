package corpus

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CurrentIndexVersion is stamped into manifests written by this package.
const CurrentIndexVersion = 1

// WriteIndex writes the embedding matrix and manifest for a collection
// directory whose segments.jsonl already exists. Each vector must have the
// same dimension.
func WriteIndex(dir string, model string, vectors [][]float32, normalize bool) error {
	if len(vectors) == 0 {
		return fmt.Errorf("no vectors to write for %s", dir)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("zero-dimension vectors for %s", dir)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dim %d, want %d", i, len(v), dim)
		}
	}

	if err := writeVectors(filepath.Join(dir, defaultVectorFile), vectors); err != nil {
		return err
	}

	m := Manifest{
		IndexVersion: CurrentIndexVersion,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Model:        model,
		Dim:          dim,
		Normalize:    normalize,
		VectorFile:   defaultVectorFile,
		SegmentFile:  SegmentsFile,
	}
	return writeManifest(filepath.Join(dir, manifestName), m)
}

func writeVectors(path string, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create vector file %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, v := range vectors {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("cannot write vectors to %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("cannot flush vector file %s: %w", path, err)
	}
	return f.Close()
}

func writeManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("cannot write manifest %s: %w", path, err)
	}
	return nil
}
