package scw

import (
	"bytes"
	"io"
	"io/ioutil"
	"strconv"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"

	"github.com/mogaika/transfer_skin_cluster/config"
	"github.com/mogaika/transfer_skin_cluster/skin"
	"github.com/mogaika/transfer_skin_cluster/utils"
)

// Decode reads a whole weights file. Every structural problem or
// invariant violation is reported as *skin.CorruptFileError.
func Decode(r io.Reader) (*skin.WeightModel, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read weights")
	}
	return Unmarshal(data)
}

// written by some windows editors
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func Unmarshal(data []byte) (*skin.WeightModel, error) {
	text, err := utils.DecodeText(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, skin.Corruptf(0, "%v", err)
	}

	records, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	d := &decoder{records: records, tolerance: config.GetWeightTolerance()}
	return d.decode()
}

type decoder struct {
	records   []record
	pos       int
	tolerance float64
}

func (d *decoder) lastLine() int {
	if len(d.records) == 0 {
		return 0
	}
	return d.records[len(d.records)-1].line
}

func (d *decoder) next(what string) (*record, error) {
	if d.pos >= len(d.records) {
		return nil, skin.Corruptf(d.lastLine(), "unexpected end of file, expected %s", what)
	}
	rec := &d.records[d.pos]
	d.pos++
	return rec, nil
}

func (d *decoder) peekKeyword() string {
	if d.pos >= len(d.records) {
		return ""
	}
	tok := d.records[d.pos].tokens[0]
	if tok.Type != TOKEN_KEYWORD {
		return ""
	}
	return string(tok.Lexeme)
}

// header reads "<keyword> <args...>" checking argument token types
func (d *decoder) header(keyword string, args ...int) (*record, error) {
	rec, err := d.next(keyword)
	if err != nil {
		return nil, err
	}
	if rec.tokens[0].Type != TOKEN_KEYWORD || string(rec.tokens[0].Lexeme) != keyword {
		return nil, skin.Corruptf(rec.line, "expected %q, got %q", keyword, rec.tokens[0].Lexeme)
	}
	if len(rec.tokens) != len(args)+1 {
		return nil, skin.Corruptf(rec.line, "%q expects %d values, got %d", keyword, len(args), len(rec.tokens)-1)
	}
	for i, typ := range args {
		if rec.tokens[i+1].Type != typ {
			return nil, skin.Corruptf(rec.line, "%q value %d has wrong type (%q)", keyword, i, rec.tokens[i+1].Lexeme)
		}
	}
	return rec, nil
}

func parseString(line int, tok *lexmachine.Token) (string, error) {
	s, err := strconv.Unquote(string(tok.Lexeme))
	if err != nil {
		return "", skin.Corruptf(line, "bad string %s", tok.Lexeme)
	}
	return s, nil
}

func parseInt(line int, tok *lexmachine.Token) (int, error) {
	if tok.Type != TOKEN_NUMBER {
		return 0, skin.Corruptf(line, "expected integer, got %q", tok.Lexeme)
	}
	v, err := strconv.ParseInt(string(tok.Lexeme), 10, 32)
	if err != nil {
		return 0, skin.Corruptf(line, "expected integer, got %q", tok.Lexeme)
	}
	return int(v), nil
}

func parseFloat(line int, tok *lexmachine.Token) (float64, error) {
	if tok.Type != TOKEN_NUMBER {
		return 0, skin.Corruptf(line, "expected number, got %q", tok.Lexeme)
	}
	v, err := strconv.ParseFloat(string(tok.Lexeme), 64)
	if err != nil {
		return 0, skin.Corruptf(line, "expected number, got %q", tok.Lexeme)
	}
	return v, nil
}

// count parses a section size; it can never exceed the records left in the file
func (d *decoder) count(rec *record) (int, error) {
	n, err := parseInt(rec.line, rec.tokens[1])
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, skin.Corruptf(rec.line, "negative count %d", n)
	}
	if left := len(d.records) - d.pos; n > left {
		return 0, skin.Corruptf(rec.line, "%s count %d but only %d records follow", rec.tokens[0].Lexeme, n, left)
	}
	return n, nil
}

func (d *decoder) decode() (*skin.WeightModel, error) {
	m := &skin.WeightModel{}

	rec, err := d.next("magic")
	if err != nil {
		return nil, err
	}
	if len(rec.tokens) != 2 || string(rec.tokens[0].Lexeme) != Magic {
		return nil, skin.Corruptf(rec.line, "missing %q magic", Magic)
	}
	if version, err := parseInt(rec.line, rec.tokens[1]); err != nil {
		return nil, err
	} else if version != Version {
		return nil, skin.Corruptf(rec.line, "unsupported version %d", version)
	}

	if rec, err = d.header(keyGeometry, TOKEN_STRING); err != nil {
		return nil, err
	}
	if m.Geometry, err = parseString(rec.line, rec.tokens[1]); err != nil {
		return nil, err
	}
	if m.Geometry == "" {
		return nil, skin.Corruptf(rec.line, "empty geometry name")
	}

	if d.peekKeyword() == keyCluster {
		if rec, err = d.header(keyCluster, TOKEN_STRING); err != nil {
			return nil, err
		}
		if m.Cluster, err = parseString(rec.line, rec.tokens[1]); err != nil {
			return nil, err
		}
	}

	if d.peekKeyword() == keyAttributes {
		if rec, err = d.header(keyAttributes, TOKEN_NUMBER, TOKEN_NUMBER, TOKEN_NUMBER); err != nil {
			return nil, err
		}
		if m.Attributes.NormalizeWeights, err = parseInt(rec.line, rec.tokens[1]); err != nil {
			return nil, err
		}
		if m.Attributes.MaxInfluences, err = parseInt(rec.line, rec.tokens[2]); err != nil {
			return nil, err
		}
		if m.Attributes.Dropoff, err = parseFloat(rec.line, rec.tokens[3]); err != nil {
			return nil, err
		}
	}

	if err := d.decodeInfluences(m); err != nil {
		return nil, err
	}
	if err := d.decodeVertices(m); err != nil {
		return nil, err
	}

	if d.pos != len(d.records) {
		return nil, skin.Corruptf(d.records[d.pos].line, "unexpected data after %d vertex records", len(m.Vertices))
	}
	return m, nil
}

func (d *decoder) decodeInfluences(m *skin.WeightModel) error {
	rec, err := d.header(keyInfluences, TOKEN_NUMBER)
	if err != nil {
		return err
	}
	count, err := d.count(rec)
	if err != nil {
		return err
	}

	m.Influences = make([]string, count)
	seen := make(map[string]struct{}, count)
	for i := range m.Influences {
		rec, err := d.next("influence name")
		if err != nil {
			return err
		}
		if len(rec.tokens) != 1 || rec.tokens[0].Type != TOKEN_STRING {
			return skin.Corruptf(rec.line, "expected influence name %d of %d", i+1, count)
		}
		name, err := parseString(rec.line, rec.tokens[0])
		if err != nil {
			return err
		}
		if name == "" {
			return skin.Corruptf(rec.line, "empty influence name")
		}
		if _, dup := seen[name]; dup {
			return skin.Corruptf(rec.line, "influence %q listed twice", name)
		}
		seen[name] = struct{}{}
		m.Influences[i] = name
	}
	return nil
}

func (d *decoder) decodeVertices(m *skin.WeightModel) error {
	rec, err := d.header(keyVertices, TOKEN_NUMBER)
	if err != nil {
		return err
	}
	count, err := d.count(rec)
	if err != nil {
		return err
	}

	m.Vertices = make([]skin.VertexWeights, count)
	for iVertex := range m.Vertices {
		rec, err := d.next("vertex record")
		if err != nil {
			return err
		}
		entries, err := parseInt(rec.line, rec.tokens[0])
		if err != nil {
			return err
		}
		if entries <= 0 || len(rec.tokens) != 1+entries*2 {
			return skin.Corruptf(rec.line, "vertex %d declares %d entries but has %d values", iVertex, entries, len(rec.tokens)-1)
		}

		vw := make(skin.VertexWeights, entries)
		for i := range vw {
			if vw[i].Influence, err = parseInt(rec.line, rec.tokens[1+i*2]); err != nil {
				return err
			}
			if vw[i].Weight, err = parseFloat(rec.line, rec.tokens[2+i*2]); err != nil {
				return err
			}
		}
		if err := m.ValidateVertex(vw, d.tolerance); err != nil {
			return skin.Corruptf(rec.line, "vertex %d: %v", iVertex, err)
		}
		m.Vertices[iVertex] = vw
	}
	return nil
}
