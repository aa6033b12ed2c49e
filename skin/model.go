package skin

import (
	"math"

	"github.com/pkg/errors"
)

// ClusterAttributes are the skin cluster settings stored next to the weights.
// Zero values mean host default.
type ClusterAttributes struct {
	NormalizeWeights int     `json:"normalizeWeights" yaml:"normalizeWeights"`
	MaxInfluences    int     `json:"maxInfluences" yaml:"maxInfluences"`
	Dropoff          float64 `json:"dropoff" yaml:"dropoff"`
}

func (a ClusterAttributes) IsZero() bool {
	return a == ClusterAttributes{}
}

type Entry struct {
	Influence int     `json:"i" yaml:"i"`
	Weight    float64 `json:"w" yaml:"w"`
}

// VertexWeights holds the non-zero influences of one vertex.
type VertexWeights []Entry

func (vw VertexWeights) Sum() float64 {
	var sum float64
	for _, e := range vw {
		sum += e.Weight
	}
	return sum
}

// WeightModel is the captured skin binding of a single mesh.
// Vertices are indexed by vertex id, entries reference Influences by index.
type WeightModel struct {
	Geometry   string            `json:"geometry" yaml:"geometry"`
	Cluster    string            `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Attributes ClusterAttributes `json:"attributes" yaml:"attributes"`
	Influences []string          `json:"influences" yaml:"influences"`
	Vertices   []VertexWeights   `json:"vertices" yaml:"vertices"`
}

func (m *WeightModel) InfluenceIndex(name string) int {
	for i, infl := range m.Influences {
		if infl == name {
			return i
		}
	}
	return -1
}

// Validate checks index range, sparsity and normalization of every vertex.
func (m *WeightModel) Validate(tolerance float64) error {
	if m.Geometry == "" {
		return errors.New("empty geometry name")
	}
	seen := make(map[string]struct{}, len(m.Influences))
	for i, infl := range m.Influences {
		if infl == "" {
			return errors.Errorf("influence %d has empty name", i)
		}
		if _, dup := seen[infl]; dup {
			return errors.Errorf("influence %q listed twice", infl)
		}
		seen[infl] = struct{}{}
	}
	for iVertex, vw := range m.Vertices {
		if err := m.ValidateVertex(vw, tolerance); err != nil {
			return errors.Wrapf(err, "vertex %d", iVertex)
		}
	}
	return nil
}

// ValidateVertex checks one vertex against the model influence table.
func (m *WeightModel) ValidateVertex(vw VertexWeights, tolerance float64) error {
	if len(vw) == 0 {
		return errors.New("no influences")
	}
	for i, e := range vw {
		if e.Influence < 0 || e.Influence >= len(m.Influences) {
			return errors.Errorf("influence index %d out of range [0,%d)", e.Influence, len(m.Influences))
		}
		if !(e.Weight > 0 && e.Weight <= 1+tolerance) {
			return errors.Errorf("weight %v of influence %d outside (0,1]", e.Weight, e.Influence)
		}
		for _, prev := range vw[:i] {
			if prev.Influence == e.Influence {
				return errors.Errorf("influence %d referenced twice", e.Influence)
			}
		}
	}
	if sum := vw.Sum(); math.Abs(sum-1) > tolerance {
		return errors.Errorf("weights sum to %v", sum)
	}
	return nil
}

func (m *WeightModel) EntriesCount() int {
	count := 0
	for _, vw := range m.Vertices {
		count += len(vw)
	}
	return count
}

func (m *WeightModel) Clone() *WeightModel {
	c := *m
	c.Influences = append([]string(nil), m.Influences...)
	c.Vertices = make([]VertexWeights, len(m.Vertices))
	for i, vw := range m.Vertices {
		c.Vertices[i] = append(VertexWeights(nil), vw...)
	}
	return &c
}

// Reversed returns a copy with the influence table in reverse order.
// Entry order inside each vertex is kept, only indexes are remapped.
func (m *WeightModel) Reversed() *WeightModel {
	c := m.Clone()
	last := len(m.Influences) - 1
	for i := range c.Influences {
		c.Influences[i] = m.Influences[last-i]
	}
	for _, vw := range c.Vertices {
		for i := range vw {
			vw[i].Influence = last - vw[i].Influence
		}
	}
	return c
}

// Dense returns the weights of one influence for every vertex, zero where unweighted.
func (m *WeightModel) Dense(influence int) []float64 {
	result := make([]float64, len(m.Vertices))
	for iVertex, vw := range m.Vertices {
		for _, e := range vw {
			if e.Influence == influence {
				result[iVertex] = e.Weight
				break
			}
		}
	}
	return result
}
