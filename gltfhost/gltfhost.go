// Package gltfhost exposes a glTF 2.0 scene as a skinning host:
// meshes are nodes with a mesh, influences are skin joint nodes.
package gltfhost

import (
	"bytes"
	"log"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/transfer_skin_cluster/transfer"
)

// glTF stores at most 4 influences per vertex in JOINTS_0/WEIGHTS_0
const MaxInfluences = 4

type Scene struct {
	path string
	doc  *gltf.Document
	// allow Apply to replace an existing skin binding
	Replace bool
}

func New(doc *gltf.Document) *Scene {
	return &Scene{doc: doc}
}

func Open(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open scene %q", path)
	}
	log.Printf("[gltfhost] Opened %q: %d nodes, %d meshes, %d skins", path, len(doc.Nodes), len(doc.Meshes), len(doc.Skins))
	return &Scene{path: path, doc: doc}, nil
}

func (s *Scene) Document() *gltf.Document {
	return s.doc
}

func (s *Scene) Save() error {
	if s.path == "" {
		return errors.New("Scene has no file path")
	}
	return s.SaveAs(s.path)
}

// SaveAs writes .glb files atomically, .gltf files with their external buffers.
func (s *Scene) SaveAs(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		var buf bytes.Buffer
		encoder := gltf.NewEncoder(&buf)
		encoder.AsBinary = true
		if err := encoder.Encode(s.doc); err != nil {
			return errors.Wrapf(err, "Failed to encode scene")
		}
		if err := transfer.WriteFileAtomic(path, buf.Bytes()); err != nil {
			return err
		}
	} else if err := gltf.Save(s.doc, path); err != nil {
		return errors.Wrapf(err, "Failed to save scene %q", path)
	}
	s.path = path
	log.Printf("[gltfhost] Saved %q", path)
	return nil
}

func (s *Scene) nodeName(n *gltf.Node) string {
	if n.Name == "" && n.Mesh != nil {
		return s.doc.Meshes[*n.Mesh].Name
	}
	return n.Name
}

// Exists reports whether a node or a mesh is named exactly name.
func (s *Scene) Exists(name string) bool {
	if name == "" {
		return false
	}
	for _, n := range s.doc.Nodes {
		if n.Name == name {
			return true
		}
	}
	for _, m := range s.doc.Meshes {
		if m.Name == name {
			return true
		}
	}
	return false
}

func (s *Scene) findMeshNode(mesh string) (*gltf.Node, error) {
	for _, n := range s.doc.Nodes {
		if n.Mesh != nil && s.nodeName(n) == mesh {
			return n, nil
		}
	}
	for _, n := range s.doc.Nodes {
		if n.Mesh != nil && s.doc.Meshes[*n.Mesh].Name == mesh {
			return n, nil
		}
	}
	return nil, errors.Errorf("Mesh %q not found", mesh)
}

func (s *Scene) findNode(name string) (uint32, bool) {
	for i, n := range s.doc.Nodes {
		if n.Name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

func (s *Scene) vertexCount(m *gltf.Mesh) (int, error) {
	count := 0
	for iPrim, prim := range m.Primitives {
		pos, ok := prim.Attributes["POSITION"]
		if !ok {
			return 0, errors.Errorf("Primitive %d of %q has no POSITION", iPrim, m.Name)
		}
		count += int(s.doc.Accessors[pos].Count)
	}
	return count, nil
}
