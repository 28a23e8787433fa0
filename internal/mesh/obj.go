package mesh

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

var white = mgl32.Vec3{1, 1, 1}

// LoadOBJ reads a Wavefront mesh and, when mtlPath is not empty, its
// material library.
func LoadOBJ(objPath, mtlPath string) (Mesh, error) {
	objFile, err := os.Open(objPath)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "open mesh")
	}
	defer objFile.Close()

	var mtl io.Reader = strings.NewReader("")
	if mtlPath != "" {
		mtlFile, err := os.Open(mtlPath)
		if err != nil {
			return Mesh{}, errors.Wrap(err, "open material library")
		}
		defer mtlFile.Close()
		mtl = mtlFile
	}

	m, err := DecodeOBJ(objFile, mtl)
	if err != nil {
		return Mesh{}, errors.Wrapf(err, "load %s", objPath)
	}
	return m, nil
}

// DecodeOBJ parses a Wavefront mesh. Faces are fanned into triangles, x and
// y become the position and the face material's diffuse color becomes the
// vertex color.
func DecodeOBJ(objReader, mtlReader io.Reader) (Mesh, error) {
	if mtlReader == nil {
		mtlReader = strings.NewReader("")
	}

	decoder, err := obj.DecodeReader(objReader, mtlReader)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "decode obj")
	}
	return fromDecoder(decoder)
}

type vertexKey struct {
	position int
	material string
}

func fromDecoder(decoder *obj.Decoder) (Mesh, error) {
	var m Mesh
	unique := make(map[vertexKey]uint16)

	add := func(face obj.Face, corner int) error {
		key := vertexKey{position: face.Vertices[corner], material: face.Material}
		if index, ok := unique[key]; ok {
			m.Indices = append(m.Indices, index)
			return nil
		}

		if len(m.Vertices) >= MaxVertices {
			return errors.Newf("mesh has more than %d unique vertices", MaxVertices)
		}
		if (key.position+1)*3 > len(decoder.Vertices) {
			return errors.Newf("face references vertex %d of %d", key.position, len(decoder.Vertices)/3)
		}

		index := uint16(len(m.Vertices))
		m.Vertices = append(m.Vertices, Vertex{
			Position: mgl32.Vec2{decoder.Vertices[key.position*3], decoder.Vertices[key.position*3+1]},
			Color:    diffuse(decoder, face.Material),
		})
		unique[key] = index
		m.Indices = append(m.Indices, index)
		return nil
	}

	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					if err := add(face, corner); err != nil {
						return Mesh{}, err
					}
				}
			}
		}
	}

	if len(m.Indices) == 0 {
		return Mesh{}, errors.New("mesh has no triangles")
	}
	return m, nil
}

func diffuse(decoder *obj.Decoder, material string) mgl32.Vec3 {
	mat, ok := decoder.Materials[material]
	if !ok || mat == nil {
		return white
	}
	return mgl32.Vec3{mat.Diffuse.R, mat.Diffuse.G, mat.Diffuse.B}
}
