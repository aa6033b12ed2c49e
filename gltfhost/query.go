package gltfhost

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/transfer_skin_cluster/skin"
)

// Query reads the skin binding of a mesh node. Vertex ids run over all
// primitives of the mesh in order.
func (s *Scene) Query(mesh string) (*skin.Binding, error) {
	node, err := s.findMeshNode(mesh)
	if err != nil {
		return nil, err
	}
	if node.Skin == nil {
		return nil, errors.Wrapf(skin.ErrNoSkinCluster, "mesh %q", mesh)
	}

	sk := s.doc.Skins[*node.Skin]
	b := &skin.Binding{
		Geometry:   s.nodeName(node),
		Cluster:    sk.Name,
		Attributes: skin.ClusterAttributes{NormalizeWeights: 1, MaxInfluences: MaxInfluences},
		Influences: make([]string, len(sk.Joints)),
	}
	for i, joint := range sk.Joints {
		name := s.doc.Nodes[joint].Name
		if name == "" {
			return nil, errors.Errorf("Joint %d of skin %q has no name", i, sk.Name)
		}
		b.Influences[i] = name
	}

	gmesh := s.doc.Meshes[*node.Mesh]
	count, err := s.vertexCount(gmesh)
	if err != nil {
		return nil, err
	}
	b.Vertices = make([]skin.VertexInfluences, 0, count)

	for iPrim, prim := range gmesh.Primitives {
		verticesCount := int(s.doc.Accessors[prim.Attributes["POSITION"]].Count)
		jointsAccessor, okJ := prim.Attributes["JOINTS_0"]
		weightsAccessor, okW := prim.Attributes["WEIGHTS_0"]
		if !okJ || !okW {
			return nil, errors.Errorf("Primitive %d of %q has no JOINTS_0/WEIGHTS_0", iPrim, mesh)
		}

		joints, err := modeler.ReadJoints(s.doc, s.doc.Accessors[jointsAccessor], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read joints of primitive %d", iPrim)
		}
		weights, err := modeler.ReadWeights(s.doc, s.doc.Accessors[weightsAccessor], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read weights of primitive %d", iPrim)
		}
		if len(joints) != verticesCount || len(weights) != verticesCount {
			return nil, errors.Errorf("Primitive %d: %d positions, %d joints, %d weights",
				iPrim, verticesCount, len(joints), len(weights))
		}

		for iVertex := range weights {
			vi := make(skin.VertexInfluences, 0, MaxInfluences)
			for k, w := range weights[iVertex] {
				if w == 0 {
					continue
				}
				joint := int(joints[iVertex][k])
				if joint >= len(b.Influences) {
					return nil, errors.Errorf("Primitive %d vertex %d references joint %d of %d",
						iPrim, iVertex, joint, len(b.Influences))
				}
				vi = append(vi, skin.NamedWeight{Name: b.Influences[joint], Weight: float64(w)})
			}
			b.Vertices = append(b.Vertices, vi)
		}
	}

	return b, nil
}
