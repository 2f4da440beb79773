// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client, which also works with Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minio.Dial(ctx, "localhost:9000", "minioadmin", "minioadmin",
//	    "my-bucket", "objects/", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repo, err := persist.Open(store, typ, gen)
//
// # Features
//
//   - Whole-object reads checked against the server's CRC32C
//   - Conditional checkpoint creates via If-None-Match
//   - Works with any S3-compatible storage without the AWS SDK
package minio
