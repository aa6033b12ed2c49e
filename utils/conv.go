package utils

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/mogaika/transfer_skin_cluster/config"
)

// DecodeText returns utf-8 text. Input that is not valid utf-8 is
// treated as written in the configured legacy encoding.
func DecodeText(bs []byte) ([]byte, error) {
	if utf8.Valid(bs) {
		return bs, nil
	}
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode text as %v", config.GetEncoding())
	}
	return s, nil
}
