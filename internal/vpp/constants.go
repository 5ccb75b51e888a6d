package vpp

// Magic identifies a Volition package. Big-endian packages store it byte-swapped.
const Magic uint32 = 0x51890ACE

// Version is the only package version this tool reads and writes.
const Version uint32 = 3

// Layout constants for version 3 packages.
const (
	// SectorSize is the alignment unit of the data region and of every
	// payload when padding is enabled.
	SectorSize = 2048

	// HeaderBlockSize is the fixed size of the header block at offset 0.
	HeaderBlockSize = 2048

	// headerFieldsSize covers magic, version, entry count and total size.
	headerFieldsSize = 16

	// ReservedSize is the unused tail of the header block.
	ReservedSize = HeaderBlockSize - headerFieldsSize

	// NameSize is the width of the NUL-padded name field of a directory record.
	NameSize = 24

	// RecordSize is the size of one directory record:
	// [name(24)][uncompressed_size(u32)][compressed_size(u32)]
	RecordSize = NameSize + 8
)

// Align rounds offset up to the next multiple of alignment.
// Offsets that are already aligned are returned unchanged.
func Align(offset, alignment int64) int64 {
	if rem := offset % alignment; rem != 0 {
		return offset + alignment - rem
	}
	return offset
}

// EstimateHeaderSize returns the size of the header block plus a directory of
// entryCount records, rounded up to a sector boundary. This is where the first
// payload of the package begins.
func EstimateHeaderSize(entryCount int) int64 {
	return Align(HeaderBlockSize+int64(entryCount)*RecordSize, SectorSize)
}
