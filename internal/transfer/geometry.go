package transfer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/vulkan-presenter/internal/mesh"
)

// Geometry is the uploaded vertex and index data of one mesh. It is
// immutable after upload and lives as long as the device.
type Geometry struct {
	Vertices   *Buffer
	Indices    *Buffer
	IndexCount int
}

// UploadMesh uploads the vertices and indices of m.
func (e *Engine) UploadMesh(m mesh.Mesh) (*Geometry, error) {
	vertices, err := e.Upload(m.Vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertices")
	}

	indices, err := e.Upload(m.Indices, core1_0.BufferUsageIndexBuffer)
	if err != nil {
		vertices.Destroy()
		return nil, errors.Wrap(err, "upload indices")
	}

	return &Geometry{Vertices: vertices, Indices: indices, IndexCount: len(m.Indices)}, nil
}

func (g *Geometry) Destroy() {
	if g == nil {
		return
	}
	g.Indices.Destroy()
	g.Vertices.Destroy()
}
