// Package container implements the single-file hierarchical store that har
// archives are built on.
//
// A container holds keyed entries, each representing one filesystem object
// (file or directory) with attributes (permission bits, modification time,
// original size) and, for files, a payload encoded through an optional
// byte-shuffle filter and compression codec (gzip, zstd or lz4, levels 0-9).
// Keys are slash-separated relative paths and are unique: the store never
// overwrites an existing key.
//
// The on-disk format is a header magic, the concatenated encoded payloads,
// a FlatBuffers index and a fixed-size footer locating the index. Opening
// a container reads only the index; payloads are read on demand through
// section readers. Appending writes new payloads over the old index region
// and re-emits the index on Close.
package container
