// Package transfer exports skin weights of a mesh to .scw files and
// imports them back onto a possibly renamed scene.
//
// Transfers are synchronous. A Transfer is not safe for concurrent use,
// callers serialize requests touching the same mesh.
package transfer

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/config"
	"github.com/mogaika/transfer_skin_cluster/scw"
	"github.com/mogaika/transfer_skin_cluster/skin"
)

type Transfer struct {
	Host     Host
	Project  *Project
	Reporter Reporter
}

func New(host Host, project *Project) *Transfer {
	return &Transfer{
		Host:     host,
		Project:  project,
		Reporter: LogReporter,
	}
}

func (t *Transfer) progress(progress float32, format string, a ...interface{}) {
	if t.Reporter != nil {
		t.Reporter.Progress(progress, format, a...)
	}
}

// capture finds the single skinned mesh of the selection and builds its model.
func (t *Transfer) capture(selection []string) (*skin.WeightModel, error) {
	var binding *skin.Binding
	var bound string
	for _, mesh := range selection {
		b, err := t.Host.Query(mesh)
		if errors.Is(err, skin.ErrNoSkinCluster) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to query %q", mesh)
		}
		if binding != nil {
			return nil, errors.Wrapf(skin.ErrNoSkinCluster, "selection has more than one skinned mesh (%q, %q)", bound, mesh)
		}
		binding, bound = b, mesh
	}
	if binding == nil {
		return nil, errors.Wrapf(skin.ErrNoSkinCluster, "selection %q", selection)
	}

	t.progress(0.2, "Captured %q: %d influences, %d vertices", bound, len(binding.Influences), len(binding.Vertices))
	m, err := skin.Build(binding, config.GetPruneEpsilon())
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to capture %q", bound)
	}
	return m, nil
}

// Export writes the weights of the single skinned mesh in selection
// to the project data directory and returns the file path.
func (t *Transfer) Export(selection []string) (string, error) {
	t.progress(0, "Exporting %q", selection)
	m, err := t.capture(selection)
	if err != nil {
		return "", err
	}

	data, err := scw.Marshal(m)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to encode %q", m.Geometry)
	}
	t.progress(0.7, "Encoded %q: %d entries, %d bytes", m.Geometry, m.EntriesCount(), len(data))

	path := t.Project.WeightsPath(m.Geometry)
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	t.progress(1, "Weights exported to %v", path)
	return path, nil
}

// ExportExclusive writes one dense .bsw file per influence into
// <data dir>/<cluster or geometry>/ and returns the directory.
func (t *Transfer) ExportExclusive(selection []string) (string, error) {
	t.progress(0, "Exporting influences of %q", selection)
	m, err := t.capture(selection)
	if err != nil {
		return "", err
	}

	name := m.Cluster
	if name == "" {
		name = m.Geometry
	}
	dir := filepath.Join(t.Project.DataDir(), FileName(name))
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrapf(err, "Unable to create export directory %q", dir)
	}

	var buf bytes.Buffer
	for i, infl := range m.Influences {
		buf.Reset()
		if err := scw.EncodeInfluence(&buf, m, i); err != nil {
			return "", err
		}
		if err := WriteFileAtomic(filepath.Join(dir, FileName(infl)+config.InfluenceExt), buf.Bytes()); err != nil {
			return "", err
		}
		t.progress(float32(i+1)/float32(len(m.Influences)), "Influence %q exported", infl)
	}
	return dir, nil
}

// Load decodes a weights file by path or by name inside the data directory.
func (t *Transfer) Load(name string) (*skin.WeightModel, string, error) {
	path := t.Project.Resolve(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrapf(err, "Failed to read weights")
	}
	m, err := scw.Unmarshal(data)
	if err != nil {
		return nil, path, errors.Wrapf(err, "Failed to decode %q", path)
	}
	return m, path, nil
}
