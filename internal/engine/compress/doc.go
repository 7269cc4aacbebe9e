// Package compress implements the compression gate for history entries.
//
// Snapshots larger than a threshold are encoded with a Codec once, at
// capture time or on an explicit CompressHistory pass. Compression is best
// effort: if the codec fails or the encoded form is not smaller, the entry
// keeps its raw snapshot and nothing is reported as an error.
//
// Once an entry is compressed the encoded bytes are authoritative and the
// raw snapshot is released. Expand decodes them back for restore.
package compress
