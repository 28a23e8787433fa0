package transfer

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
)

// Encode lays data out in the byte order the device expects. data must be
// a fixed-size value or a slice of fixed-size values.
func Encode(data any) ([]byte, error) {
	if binary.Size(data) <= 0 {
		return nil, errors.Newf("cannot upload %T: no fixed-size encoding or empty", data)
	}

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, common.ByteOrder, data); err != nil {
		return nil, errors.Wrapf(err, "encode %T", data)
	}
	return buf.Bytes(), nil
}

// fill copies payload into a mapped region.
func fill(region, payload []byte) error {
	if len(region) < len(payload) {
		return errors.AssertionFailedf("mapped region of %d bytes cannot hold %d", len(region), len(payload))
	}
	copy(region, payload)
	return nil
}
