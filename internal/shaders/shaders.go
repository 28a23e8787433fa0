// Package shaders loads compiled SPIR-V blobs from disk.
package shaders

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
)

//go:generate glslc ../../shaders/shader.vert -o ../../shaders/shader.vert.spv
//go:generate glslc ../../shaders/shader.frag -o ../../shaders/shader.frag.spv

// Read returns the raw bytes of the file at path.
func Read(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "read shader %s", path),
			"run `go generate ./internal/shaders` with glslc on the PATH to compile the shaders")
	}
	return b, nil
}

// Bytecode reinterprets a SPIR-V blob as its little-endian word stream.
func Bytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v blob of %d bytes is not a whole number of words", len(b))
	}

	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// FileLoader reads shaders from the filesystem.
type FileLoader struct{}

func (FileLoader) Load(path string) ([]uint32, error) {
	b, err := Read(path)
	if err != nil {
		return nil, err
	}

	words, err := Bytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decode shader %s", path)
	}
	return words, nil
}
