// Package hash provides CRC32-Castagnoli (CRC32C) checksums.
//
// Record files and S3 uploads are protected with CRC32C. Go's hash/crc32
// uses SSE4.2 or the ARM CRC extension when available.
//
// For one-shot checksums:
//
//	sum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	sum := h.Sum32()
package hash
