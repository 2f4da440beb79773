// Package s3 provides S3 implementations of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("objects/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	repo, err := persist.Open(store, persist.PointType(), gen)
//
// # Features
//
//   - Whole-object reads verified against the stored CRC32C
//   - Multipart streaming uploads through the transfer manager
//   - CRC32C integrity checksums on Put
//   - Conditional creates (If-None-Match) for immutable checkpoints
//   - DynamoDB-backed CURRENT pointer for concurrent writers (DDBCommitStore)
package s3
