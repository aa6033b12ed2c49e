package main

import (
	"bytes"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/config"
	"github.com/mogaika/transfer_skin_cluster/skin"
	"github.com/mogaika/transfer_skin_cluster/transfer"
	"github.com/mogaika/transfer_skin_cluster/utils"
)

// weightsCheck decodes every weights file of the project and returns the count of broken ones
func weightsCheck(t *transfer.Transfer) int {
	files, err := t.Project.List()
	if err != nil {
		log.Fatal(err)
	}

	bad := 0
	for _, fname := range files {
		m, path, err := t.Load(fname)
		if err != nil {
			bad++
			log.Printf("E %v: %v", fname, err)
			var corrupt *skin.CorruptFileError
			if errors.As(err, &corrupt) && corrupt.Line > 0 {
				if line := fileLine(path, corrupt.Line); line != nil {
					log.Printf("  line %d: %s", corrupt.Line, utils.DumpToOneLineString(line))
				}
			}
			continue
		}
		if err := m.Validate(config.GetWeightTolerance()); err != nil {
			bad++
			log.Printf("E %v: %v", fname, err)
			continue
		}
		log.Printf("OK %v: %q %d influences, %d vertices", fname, m.Geometry, len(m.Influences), len(m.Vertices))
	}
	log.Printf("Checked %d files, %d broken", len(files), bad)
	return bad
}

func fileLine(path string, line int) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := bytes.Split(data, []byte("\n"))
	if line > len(lines) {
		return nil
	}
	return lines[line-1]
}
