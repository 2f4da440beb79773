// Package persistence stores persistent objects and generator checkpoints
// in a blobstore.BlobStore.
//
// Layout inside the store:
//
//	objects/<type>/<id>.rec      object record + CRC32C trailer
//	checkpoints/<seq>.gen        generator record + CRC32C trailer
//	CURRENT                      name of the latest checkpoint
//
// A record is the versioned binary form written by WriteBinary in the
// Manager's byte order. The trailer is the little-endian CRC32C of the record.
//
// Checkpoints are immutable: a checkpoint blob is created with a
// conditional write and only then published through CURRENT. Recovery reads
// CURRENT and restores the generator, so identities minted after a restart
// never collide with persisted ones.
package persistence
