package rename

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Strategy is one of DirectAssign, SearchReplace or Affix.
// The set is closed so matching stays exact and auditable.
type Strategy interface {
	// rename returns the substituted name, false when the strategy does not apply
	rename(current, stored string) (string, bool)
	String() string
}

// DirectAssign maps a stored (file) name or a current name to a scene name.
type DirectAssign map[string]string

func (da DirectAssign) rename(current, stored string) (string, bool) {
	if name, ok := da[stored]; ok && name != "" {
		return name, true
	}
	if name, ok := da[current]; ok && name != "" {
		return name, true
	}
	return "", false
}

func (da DirectAssign) String() string {
	keys := make([]string, 0, len(da))
	for k := range da {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%s", k, da[k])
	}
	return "assign(" + strings.Join(pairs, ",") + ")"
}

// SearchReplace replaces every occurrence of Search.
type SearchReplace struct {
	Search  string
	Replace string
}

func (sr SearchReplace) rename(current, stored string) (string, bool) {
	if sr.Search == "" || !strings.Contains(current, sr.Search) {
		return "", false
	}
	return strings.Replace(current, sr.Search, sr.Replace, -1), true
}

func (sr SearchReplace) String() string {
	return fmt.Sprintf("replace(%q->%q)", sr.Search, sr.Replace)
}

type Position int

const (
	Prefix Position = iota
	Suffix
)

func (p Position) String() string {
	if p == Suffix {
		return "suffix"
	}
	return "prefix"
}

// Affix adds a literal before or after the name.
type Affix struct {
	Text     string
	Position Position
}

func (a Affix) rename(current, stored string) (string, bool) {
	if a.Text == "" {
		return "", false
	}
	if a.Position == Suffix {
		return current + a.Text, true
	}
	return a.Text + current, true
}

func (a Affix) String() string {
	return fmt.Sprintf("%v(%q)", a.Position, a.Text)
}

// Options is the flat form of a strategy list as it comes from flags,
// http requests and preset files.
type Options struct {
	Assign  map[string]string `json:"assign,omitempty" yaml:"assign,omitempty"`
	Search  string            `json:"search,omitempty" yaml:"search,omitempty"`
	Replace string            `json:"replace,omitempty" yaml:"replace,omitempty"`
	Prefix  string            `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix  string            `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

// Strategies returns assign, search/replace, prefix and suffix strategies in this order.
func (o Options) Strategies() []Strategy {
	result := make([]Strategy, 0, 4)
	if len(o.Assign) != 0 {
		result = append(result, DirectAssign(o.Assign))
	}
	if o.Search != "" {
		result = append(result, SearchReplace{Search: o.Search, Replace: o.Replace})
	}
	if o.Prefix != "" {
		result = append(result, Affix{Text: o.Prefix, Position: Prefix})
	}
	if o.Suffix != "" {
		result = append(result, Affix{Text: o.Suffix, Position: Suffix})
	}
	return result
}

// ParseAssign parses "old=new,old2=new2".
func ParseAssign(s string) (DirectAssign, error) {
	da := make(DirectAssign)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.Errorf("invalid assignment %q, expected old=new", pair)
		}
		da[parts[0]] = parts[1]
	}
	return da, nil
}
