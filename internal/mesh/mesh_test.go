package mesh

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/g3n/engine/loader/obj"
	"github.com/g3n/engine/math32"
	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/gomega"
	"github.com/vkngwrapper/core/core1_0"
)

func TestQuad(t *testing.T) {
	g := NewWithT(t)

	quad := Quad()
	g.Expect(quad.Vertices).To(HaveLen(4))
	g.Expect(quad.Indices).To(Equal([]uint16{0, 1, 2, 2, 3, 0}))
	g.Expect(quad.Vertices[0].Color).To(Equal(mgl32.Vec3{1, 0, 0}))
	g.Expect(quad.Vertices[3].Color).To(Equal(mgl32.Vec3{1, 1, 1}))
}

func TestVertexLayout(t *testing.T) {
	g := NewWithT(t)

	bindings := BindingDescriptions()
	g.Expect(bindings).To(HaveLen(1))
	g.Expect(bindings[0].Stride).To(Equal(20))
	g.Expect(bindings[0].Stride).To(Equal(int(unsafe.Sizeof(Vertex{}))))

	attributes := AttributeDescriptions()
	g.Expect(attributes).To(HaveLen(2))
	g.Expect(attributes[0].Format).To(Equal(core1_0.FormatR32G32SignedFloat))
	g.Expect(attributes[0].Offset).To(Equal(0))
	g.Expect(attributes[1].Format).To(Equal(core1_0.FormatR32G32B32SignedFloat))
	g.Expect(attributes[1].Offset).To(Equal(8))
}

func square(material string) *obj.Decoder {
	return &obj.Decoder{
		Vertices: math32.ArrayF32{
			-1, -1, 0,
			1, -1, 0,
			1, 1, 0,
			-1, 1, 0,
		},
		Objects: []obj.Object{
			{Faces: []obj.Face{{Vertices: []int{0, 1, 2, 3}, Material: material}}},
		},
		Materials: map[string]*obj.Material{
			"red": {Name: "red", Diffuse: math32.Color{R: 1}},
		},
	}
}

func TestFromDecoderFansFaces(t *testing.T) {
	g := NewWithT(t)

	m, err := fromDecoder(square(""))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m.Vertices).To(HaveLen(4))
	g.Expect(m.Indices).To(Equal([]uint16{0, 1, 2, 0, 2, 3}))
	g.Expect(m.Vertices[2].Position).To(Equal(mgl32.Vec2{1, 1}))
	g.Expect(m.Vertices[0].Color).To(Equal(white))
}

func TestFromDecoderUsesDiffuseColor(t *testing.T) {
	g := NewWithT(t)

	m, err := fromDecoder(square("red"))
	g.Expect(err).NotTo(HaveOccurred())
	for _, v := range m.Vertices {
		g.Expect(v.Color).To(Equal(mgl32.Vec3{1, 0, 0}))
	}
}

func TestFromDecoderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		decoder *obj.Decoder
	}{
		{name: "no faces", decoder: &obj.Decoder{Vertices: math32.ArrayF32{0, 0, 0}}},
		{
			name: "out of range vertex",
			decoder: &obj.Decoder{
				Vertices: math32.ArrayF32{0, 0, 0},
				Objects:  []obj.Object{{Faces: []obj.Face{{Vertices: []int{0, 1, 2}}}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			_, err := fromDecoder(tt.decoder)
			g.Expect(err).To(HaveOccurred())
		})
	}
}

func TestFromDecoderRejectsTooManyVertices(t *testing.T) {
	g := NewWithT(t)

	count := MaxVertices + 3
	decoder := &obj.Decoder{Vertices: make(math32.ArrayF32, count*3)}
	faces := make([]obj.Face, 0, count/3)
	for i := 0; i+2 < count; i += 3 {
		faces = append(faces, obj.Face{Vertices: []int{i, i + 1, i + 2}})
	}
	decoder.Objects = []obj.Object{{Faces: faces}}

	_, err := fromDecoder(decoder)
	g.Expect(err).To(MatchError(ContainSubstring("unique vertices")))
}

func TestDecodeOBJ(t *testing.T) {
	g := NewWithT(t)

	source := strings.Join([]string{
		"v -0.5 -0.5 0",
		"v 0.5 -0.5 0",
		"v 0.0 0.5 0",
		"f 1 2 3",
	}, "\n")

	m, err := DecodeOBJ(strings.NewReader(source), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m.Indices).To(Equal([]uint16{0, 1, 2}))
	g.Expect(m.Vertices[2].Position).To(Equal(mgl32.Vec2{0, 0.5}))
}
