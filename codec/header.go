package codec

import (
	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/version"
)

const (
	tiersLen = 3 * 2
	idOffset = tiersLen
)

// PutHeader encodes tag into dst[:version.Size] using the given byte order.
func PutHeader(dst []byte, tag version.Tag, order byteorder.Descriptor) {
	_ = dst[version.Size-1]
	host := byteorder.Host()
	bo := host.ByteOrder()
	bo.PutUint16(dst[0:2], uint16(tag.Public))
	bo.PutUint16(dst[2:4], uint16(tag.Protected))
	bo.PutUint16(dst[4:6], uint16(tag.Private))
	bo.PutUint64(dst[idOffset:version.Size], uint64(tag.ID))

	byteorder.Convert(dst[:tiersLen], 2, host, order)
	byteorder.Convert(dst[idOffset:version.Size], 8, host, order)
}

// Header decodes a tag from src[:version.Size] encoded with the given byte order.
// src is not modified.
func Header(src []byte, order byteorder.Descriptor) version.Tag {
	var buf [version.Size]byte
	copy(buf[:], src[:version.Size])

	host := byteorder.Host()
	byteorder.Convert(buf[:tiersLen], 2, order, host)
	byteorder.Convert(buf[idOffset:], 8, order, host)

	bo := host.ByteOrder()
	return version.Tag{
		Public:    int16(bo.Uint16(buf[0:2])),
		Protected: int16(bo.Uint16(buf[2:4])),
		Private:   int16(bo.Uint16(buf[4:6])),
		ID:        identity.ID(bo.Uint64(buf[idOffset:])),
	}
}
