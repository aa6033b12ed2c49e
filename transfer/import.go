package transfer

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/scw"
	"github.com/mogaika/transfer_skin_cluster/skin"
)

type ImportOptions struct {
	// applied in order to names not found in the scene
	Strategies []rename.Strategy
	// bind influences in reverse file order
	Reverse bool
	// persist the renamed set under this name before applying
	SaveRenamedAs string
}

type ImportResult struct {
	Path     string `json:"path"`
	Geometry string `json:"geometry"`
	// false when Unmatched is not empty, choose a strategy and retry
	Applied   bool              `json:"applied"`
	Unmatched []rename.Mismatch `json:"unmatched,omitempty"`
	Reports   []rename.Report   `json:"reports,omitempty"`
	SavedAs   string            `json:"savedAs,omitempty"`
}

// Import decodes a weights file, reconciles its names with the scene and binds
// it with a single host call. Any failure aborts before the host is touched.
func (t *Transfer) Import(name string, opts ImportOptions) (*ImportResult, error) {
	t.progress(0, "Importing %q", name)
	m, path, err := t.Load(name)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Path: path, Geometry: m.Geometry}
	t.progress(0.3, "Decoded %q: %d influences, %d vertices", m.Geometry, len(m.Influences), len(m.Vertices))

	resolver := rename.NewResolver(m, t.Host)
	for _, s := range opts.Strategies {
		result.Reports = append(result.Reports, resolver.Apply(s))
	}

	reconciled, err := resolver.Model()
	if err != nil {
		var unresolved *rename.UnresolvedError
		if errors.As(err, &unresolved) {
			result.Unmatched = unresolved.Names
			t.progress(1, "Import of %q halted: %d names not found in scene", m.Geometry, len(result.Unmatched))
			return result, nil
		}
		return nil, errors.Wrapf(err, "Failed to reconcile %q", path)
	}
	result.Geometry = reconciled.Geometry
	t.progress(0.6, "Names of %q reconciled", reconciled.Geometry)

	if opts.SaveRenamedAs != "" {
		saved, err := t.saveRenamed(path, opts.SaveRenamedAs, reconciled)
		if err != nil {
			return nil, err
		}
		result.SavedAs = saved
	}

	bind := reconciled
	if opts.Reverse {
		bind = reconciled.Reversed()
	}
	if err := t.Host.Apply(bind.Geometry, bind); err != nil {
		var herr *skin.HostBindError
		if errors.As(err, &herr) {
			return nil, err
		}
		return nil, &skin.HostBindError{Mesh: bind.Geometry, Err: err}
	}

	result.Applied = true
	t.progress(1, "Weights imported from %v", path)
	return result, nil
}

func (t *Transfer) saveRenamed(source, name string, m *skin.WeightModel) (string, error) {
	target := t.Project.Resolve(name)
	src, err1 := filepath.Abs(source)
	dst, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil || src == dst {
		return "", errors.Errorf("Renamed weights must not overwrite the source file %q", source)
	}

	data, err := scw.Marshal(m)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to encode renamed weights")
	}
	if err := WriteFileAtomic(target, data); err != nil {
		return "", err
	}
	t.progress(0.8, "Renamed weights saved to %v", target)
	return target, nil
}
