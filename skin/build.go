package skin

import (
	"fmt"
	"math"
)

type NamedWeight struct {
	Name   string
	Weight float64
}

type VertexInfluences []NamedWeight

// Binding is what a host reports for a bound mesh.
// Vertices must contain one element per mesh vertex in mesh order.
type Binding struct {
	Geometry   string
	Cluster    string
	Attributes ClusterAttributes
	Influences []string
	Vertices   []VertexInfluences
}

// Build converts a host binding into a WeightModel.
// Pairs with weight <= pruneEpsilon are dropped and the rest renormalized.
func Build(b *Binding, pruneEpsilon float64) (*WeightModel, error) {
	if b.Geometry == "" {
		return nil, &MalformedInputError{Vertex: -1, Reason: "empty geometry name"}
	}

	m := &WeightModel{
		Geometry:   b.Geometry,
		Cluster:    b.Cluster,
		Attributes: b.Attributes,
		Influences: make([]string, 0, len(b.Influences)),
		Vertices:   make([]VertexWeights, len(b.Vertices)),
	}

	table := make(map[string]int, len(b.Influences))
	indexOf := func(name string) int {
		if i, ok := table[name]; ok {
			return i
		}
		table[name] = len(m.Influences)
		m.Influences = append(m.Influences, name)
		return table[name]
	}

	for i, name := range b.Influences {
		if name == "" {
			return nil, &MalformedInputError{Vertex: -1, Reason: fmt.Sprintf("influence %d has empty name", i)}
		}
		indexOf(name)
	}

	for iVertex, pairs := range b.Vertices {
		vw := make(VertexWeights, 0, len(pairs))
		var sum float64
		for _, p := range pairs {
			if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight < 0 {
				return nil, &MalformedInputError{Vertex: iVertex,
					Reason: fmt.Sprintf("invalid weight %v for influence %q", p.Weight, p.Name)}
			}
			if p.Weight <= pruneEpsilon {
				continue
			}
			if p.Name == "" {
				return nil, &MalformedInputError{Vertex: iVertex, Reason: "influence without name"}
			}
			infl := indexOf(p.Name)
			sum += p.Weight

			merged := false
			for i := range vw {
				if vw[i].Influence == infl {
					vw[i].Weight += p.Weight
					merged = true
					break
				}
			}
			if !merged {
				vw = append(vw, Entry{Influence: infl, Weight: p.Weight})
			}
		}
		// normalizing can push weights of unnormalized hosts back under the threshold
		for len(vw) != 0 {
			pruned := vw[:0]
			next := 0.0
			for _, e := range vw {
				if e.Weight /= sum; e.Weight > pruneEpsilon {
					pruned = append(pruned, e)
					next += e.Weight
				}
			}
			if len(pruned) == len(vw) {
				break
			}
			vw, sum = pruned, next
		}
		if len(vw) == 0 {
			return nil, &MalformedInputError{Vertex: iVertex, Reason: "no influence above prune threshold"}
		}
		m.Vertices[iVertex] = vw
	}

	return m, nil
}
