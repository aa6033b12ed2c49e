package transfer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/config"
)

// Project is the root directory weights are stored under.
type Project struct {
	Root string
}

func NewProject(root string) *Project {
	return &Project{Root: root}
}

func (p *Project) DataDir() string {
	return filepath.Join(p.Root, filepath.FromSlash(config.GetDataDir()))
}

// FileName turns a node name into a file name, "|root|bodyShape" becomes "root_bodyShape".
func FileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '|', ':', '*', '?', '"', '<', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, name)
	mapped = strings.TrimLeft(mapped, "_.")
	if mapped == "" {
		return "unnamed"
	}
	return mapped
}

func (p *Project) WeightsPath(geometry string) string {
	return filepath.Join(p.DataDir(), FileName(geometry)+config.WeightsExt)
}

// Resolve maps a bare file name into the data directory.
// Paths with a directory component are returned as is.
func (p *Project) Resolve(name string) string {
	if filepath.Base(name) != name {
		return name
	}
	if !strings.EqualFold(filepath.Ext(name), config.WeightsExt) {
		name += config.WeightsExt
	}
	return filepath.Join(p.DataDir(), name)
}

// List returns the weight files of the data directory, sorted.
func (p *Project) List() ([]string, error) {
	entries, err := os.ReadDir(p.DataDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "Failed to list %q", p.DataDir())
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), config.WeightsExt) {
			result = append(result, e.Name())
		}
	}
	sort.Strings(result)
	return result, nil
}

// WriteFileAtomic replaces path with data. The data goes to a temporary file
// in the same directory first, so a failed write never clobbers an existing file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "Failed to create directory %q", dir)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", tmp)
	}

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "Failed to write %q", path)
	}
	return nil
}
