package main

import (
	"bytes"
	"log"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/transfer"
)

// savePreset appends the rename options as a new step of preset name and rewrites the presets file
func savePreset(path string, presets rename.Presets, name string, opts rename.Options) error {
	if path == "" || name == "" {
		return errors.New("-presets and -preset are required to save a preset")
	}
	if len(opts.Strategies()) == 0 {
		return errors.New("No rename option to save")
	}
	if opts.Replace != "" && opts.Search == "" {
		return errors.New("-replace requires -search")
	}

	if presets == nil {
		presets = rename.Presets{}
	}
	presets[name] = append(presets[name], opts)

	var buf bytes.Buffer
	if err := presets.Save(&buf); err != nil {
		return err
	}
	if err := transfer.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	log.Printf("Preset %q saved to %v with %d steps", name, path, len(presets[name]))
	return nil
}
