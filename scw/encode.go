package scw

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/config"
	"github.com/mogaika/transfer_skin_cluster/skin"
)

const writeBufferSize = 64 * 1024

// Encode writes m in a single pass. The model is validated first,
// a file that cannot be decoded back is never produced.
func Encode(w io.Writer, m *skin.WeightModel) error {
	if err := m.Validate(config.GetWeightTolerance()); err != nil {
		return errors.Wrapf(err, "Refusing to encode invalid model %q", m.Geometry)
	}

	bw := bufio.NewWriterSize(w, writeBufferSize)
	buf := make([]byte, 0, 256)

	buf = append(buf, Magic...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, Version, 10)
	buf = append(buf, '\n')

	buf = appendStringLine(buf, keyGeometry, m.Geometry)
	if m.Cluster != "" {
		buf = appendStringLine(buf, keyCluster, m.Cluster)
	}
	if !m.Attributes.IsZero() {
		buf = append(buf, keyAttributes...)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(m.Attributes.NormalizeWeights), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(m.Attributes.MaxInfluences), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, m.Attributes.Dropoff, 'g', -1, 64)
		buf = append(buf, '\n')
	}

	buf = appendCountLine(buf, keyInfluences, len(m.Influences))
	if _, err := bw.Write(buf); err != nil {
		return errors.Wrapf(err, "Failed to write header")
	}
	for _, infl := range m.Influences {
		buf = strconv.AppendQuote(buf[:0], infl)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrapf(err, "Failed to write influence %q", infl)
		}
	}

	buf = appendCountLine(buf[:0], keyVertices, len(m.Vertices))
	if _, err := bw.Write(buf); err != nil {
		return errors.Wrapf(err, "Failed to write vertices header")
	}
	for iVertex, vw := range m.Vertices {
		buf = strconv.AppendInt(buf[:0], int64(len(vw)), 10)
		for _, e := range vw {
			buf = append(buf, ' ')
			buf = strconv.AppendInt(buf, int64(e.Influence), 10)
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, e.Weight, 'g', WeightPrecision, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrapf(err, "Failed to write vertex %d", iVertex)
		}
	}

	return errors.Wrapf(bw.Flush(), "Failed to flush weights")
}

// Marshal encodes m into memory.
func Marshal(m *skin.WeightModel) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(64 + len(m.Influences)*16 + m.EntriesCount()*16)
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendStringLine(buf []byte, key, value string) []byte {
	buf = append(buf, key...)
	buf = append(buf, ' ')
	buf = strconv.AppendQuote(buf, value)
	return append(buf, '\n')
}

func appendCountLine(buf []byte, key string, count int) []byte {
	buf = append(buf, key...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(count), 10)
	return append(buf, '\n')
}
