package gltfhost

import (
	"log"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/transfer_skin_cluster/skin"
)

// Apply binds m to the mesh node: creates a skin from the influence nodes
// and writes JOINTS_0/WEIGHTS_0 for every primitive. Nothing is changed on error.
func (s *Scene) Apply(mesh string, m *skin.WeightModel) error {
	node, err := s.findMeshNode(mesh)
	if err != nil {
		return err
	}
	if node.Skin != nil && !s.Replace {
		return errors.Errorf("Mesh %q is already bound to skin %q", mesh, s.doc.Skins[*node.Skin].Name)
	}

	gmesh := s.doc.Meshes[*node.Mesh]
	count, err := s.vertexCount(gmesh)
	if err != nil {
		return err
	}
	if count != len(m.Vertices) {
		return errors.Errorf("Mesh %q has %d vertices, weights have %d", mesh, count, len(m.Vertices))
	}
	if len(m.Influences) > math.MaxUint16 {
		return errors.Errorf("Too many influences: %d", len(m.Influences))
	}

	jointNodes := make([]uint32, len(m.Influences))
	for i, infl := range m.Influences {
		idx, ok := s.findNode(infl)
		if !ok {
			return errors.Errorf("Influence %q not found in scene", infl)
		}
		jointNodes[i] = idx
	}

	name := m.Cluster
	if name == "" {
		name = mesh + "Skin"
	}
	newSkin := &gltf.Skin{Name: name, Joints: jointNodes}
	var skinIndex uint32
	if node.Skin != nil && s.skinUsers(*node.Skin) == 1 {
		skinIndex = *node.Skin
		s.doc.Skins[skinIndex] = newSkin
	} else {
		s.doc.Skins = append(s.doc.Skins, newSkin)
		skinIndex = uint32(len(s.doc.Skins) - 1)
	}

	offset := 0
	truncated := 0
	for _, prim := range gmesh.Primitives {
		verticesCount := int(s.doc.Accessors[prim.Attributes["POSITION"]].Count)
		joints := make([][4]uint16, verticesCount)
		weights := make([][4]float32, verticesCount)
		for iVertex := range joints {
			vw := m.Vertices[offset+iVertex]
			if len(vw) > MaxInfluences {
				truncated++
			}
			joints[iVertex], weights[iVertex] = heaviest(vw)
		}
		prim.Attributes["JOINTS_0"] = modeler.WriteJoints(s.doc, joints)
		prim.Attributes["WEIGHTS_0"] = modeler.WriteWeights(s.doc, weights)
		offset += verticesCount
	}
	node.Skin = gltf.Index(skinIndex)

	if truncated != 0 {
		log.Printf("[gltfhost] %q: %d vertices had more than %d influences, lightest dropped", mesh, truncated, MaxInfluences)
	}
	log.Printf("[gltfhost] Bound %q to skin %q with %d influences", mesh, name, len(m.Influences))
	return nil
}

func (s *Scene) skinUsers(skinIndex uint32) int {
	users := 0
	for _, n := range s.doc.Nodes {
		if n.Skin != nil && *n.Skin == skinIndex {
			users++
		}
	}
	return users
}

// heaviest keeps the MaxInfluences biggest weights of a vertex, renormalized
func heaviest(vw skin.VertexWeights) ([4]uint16, [4]float32) {
	sorted := append(skin.VertexWeights(nil), vw...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})

	var joints [4]uint16
	var weights mgl32.Vec4
	for i := 0; i < MaxInfluences && i < len(sorted); i++ {
		joints[i] = uint16(sorted[i].Influence)
		weights[i] = float32(sorted[i].Weight)
	}
	if sum := weights.Dot(mgl32.Vec4{1, 1, 1, 1}); sum > 0 {
		weights = weights.Mul(1 / sum)
	}
	return joints, [4]float32(weights)
}
