// Package har archives filesystem trees into hierarchical, self-describing
// containers and reconstructs them.
//
// An archive maps every file and directory of its sources to an entry in a
// [container.Container], keyed by the slash-separated path relative to the
// archived root. File payloads optionally pass through a byte-shuffle
// filter and a compression codec (gzip, zstd or lz4); permission bits and
// modification times are stored as entry attributes and restored on
// extraction.
//
// Create an archive:
//
//	b := har.NewBuilder(
//	    har.BuildWithCompression(container.CodecGzip, 6),
//	)
//	stats, err := b.Create(ctx, "tree.har", []string{"./src"})
//
// Append more sources later; entries whose key already exists are skipped,
// never overwritten:
//
//	stats, err = b.Append(ctx, "tree.har", []string{"./more"})
//
// Extract and list:
//
//	c, err := container.OpenReadOnly("tree.har")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	_, err = har.NewExtractor().ExtractAll(ctx, c, "./out")
//	keys := har.List(c)
//
// Operations are synchronous and single-threaded; a container handle must
// not be shared across concurrent operations, and external access to the
// container file during create or append is undefined behavior.
package har
