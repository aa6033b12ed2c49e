package rename

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Presets are named strategy lists kept in a yaml file:
//
//	presets:
//	  maya_to_rig:
//	    - search: "joint"
//	      replace: "Joint_"
//	    - prefix: "rig:"
//	    - assign: {old_hip: Hips}
type Presets map[string][]Options

type presetsFile struct {
	Presets Presets `yaml:"presets"`
}

func LoadPresets(r io.Reader) (Presets, error) {
	var f presetsFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return Presets{}, nil
		}
		return nil, errors.Wrapf(err, "Failed to unmarshal presets")
	}
	for name, steps := range f.Presets {
		for i, step := range steps {
			if len(step.Strategies()) == 0 {
				return nil, errors.Errorf("Preset %q step %d has no strategy", name, i)
			}
			if step.Replace != "" && step.Search == "" {
				return nil, errors.Errorf("Preset %q step %d has replace without search", name, i)
			}
		}
	}
	if f.Presets == nil {
		f.Presets = Presets{}
	}
	return f.Presets, nil
}

func (p Presets) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&presetsFile{Presets: p}); err != nil {
		return errors.Wrapf(err, "Failed to marshal presets")
	}
	return errors.Wrapf(enc.Close(), "Failed to close yaml encoder")
}

func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategies flattens a preset into the strategies of its steps.
func (p Presets) Strategies(name string) ([]Strategy, error) {
	steps, ok := p[name]
	if !ok {
		return nil, errors.Errorf("Unknown rename preset %q", name)
	}
	result := make([]Strategy, 0, len(steps))
	for _, step := range steps {
		result = append(result, step.Strategies()...)
	}
	return result, nil
}
