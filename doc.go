// Package persist provides versioned binary persistence for fixed-size Go
// records.
//
// Every persisted record carries a three-tier version tag and an identity
// minted by an identity generator. Records are written in a chosen byte order
// and read back only when the stored tag matches the type exactly. A pool of
// reusable objects keeps allocation off the hot path.
//
// # Quick Start
//
//	typ := object.MustType("point", version.New(1, 0, 0), func() object.Payload { return &Point{} })
//	gen := idgen.MustNew(0, 1)
//
//	repo, _ := persist.Open(ctx, typ, gen,
//	    persist.WithStore(blobstore.NewLocalStore("./data")),
//	    persist.WithRecover(),
//	    persist.WithCheckpointOnClose(),
//	)
//	defer repo.Close(ctx)
//
//	slot, _ := repo.Acquire(ctx, func(p object.Payload) { *p.(*Point) = Point{1, 2, 3} })
//	_ = repo.Save(ctx, slot.Object())
//	_ = repo.Release(ctx, slot)
//
// Cloud storage:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("records/"))
//	repo, _ := persist.Open(ctx, typ, gen, persist.WithStore(s3Store))
//
// # Layout
//
// A store holds one blob per object and one per generator checkpoint:
//
//	objects/<type>/<id>.rec    record header, payload, CRC32C trailer
//	checkpoints/<seq>.gen      generator state, CRC32C trailer
//	CURRENT                    name of the latest checkpoint
//
// # Packages
//
//   - byteorder: byte-order descriptors and in-place conversion
//   - identity, idgen: identities and the generator that mints them
//   - version: version tags and the record header
//   - object: types, payloads and persistent objects
//   - pool: the pooled factory
//   - persistence: the manager that stores objects and checkpoints
//   - blobstore: local, in-memory, S3 and MinIO stores
//
// # Configuration
//
// A Repository can be configured from YAML:
//
//	cfg, _ := persist.LoadConfig("persist.yaml")
//	store, _ := cfg.OpenStore(ctx)
//	gen, _ := cfg.NewGenerator()
//	opts, _ := cfg.Options(store)
//	repo, _ := persist.Open(ctx, typ, gen, opts...)
package persist
