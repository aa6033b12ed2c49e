package scw

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/skin"
)

// EncodeInfluence writes the dense weight list of one influence,
// one "<vertex> <weight>" line per vertex including unweighted ones.
func EncodeInfluence(w io.Writer, m *skin.WeightModel, influence int) error {
	if influence < 0 || influence >= len(m.Influences) {
		return errors.Errorf("Influence index %d out of range [0,%d)", influence, len(m.Influences))
	}

	bw := bufio.NewWriterSize(w, writeBufferSize)
	buf := make([]byte, 0, 32)
	for iVertex, weight := range m.Dense(influence) {
		buf = strconv.AppendInt(buf[:0], int64(iVertex), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, weight, 'g', WeightPrecision, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrapf(err, "Failed to write vertex %d", iVertex)
		}
	}
	return errors.Wrapf(bw.Flush(), "Failed to flush influence %q", m.Influences[influence])
}
