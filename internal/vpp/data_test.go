package vpp

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHeader creates a raw header block for testing
func buildHeader(order binary.ByteOrder, magic, version, count, size uint32) []byte {
	block := make([]byte, HeaderBlockSize)
	order.PutUint32(block[0:], magic)
	order.PutUint32(block[4:], version)
	order.PutUint32(block[8:], count)
	order.PutUint32(block[12:], size)
	return block
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    *Header
		wantErr error
		errMsg  string
	}{
		{
			name:  "little endian",
			input: buildHeader(binary.LittleEndian, Magic, 3, 7, 123456),
			want:  &Header{Endian: Little, EntryCount: 7, TotalSize: 123456},
		},
		{
			name:  "big endian",
			input: buildHeader(binary.BigEndian, Magic, 3, 2, 8192),
			want:  &Header{Endian: Big, EntryCount: 2, TotalSize: 8192},
		},
		{
			name:    "bad magic",
			input:   buildHeader(binary.LittleEndian, 0x51890ACF, 3, 0, 0),
			wantErr: ErrBadMagic,
		},
		{
			name:    "version 4",
			input:   buildHeader(binary.LittleEndian, Magic, 4, 0, 0),
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "version read in detected byte order",
			input:   buildHeader(binary.LittleEndian, bitsSwap(Magic), 3, 0, 0),
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:   "EOF when reading magic",
			input:  []byte{0xCE, 0x0A},
			errMsg: "failed to read magic",
		},
		{
			name:   "truncated header block",
			input:  buildHeader(binary.LittleEndian, Magic, 3, 1, 1)[:100],
			errMsg: "failed to read header block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadHeader(bytes.NewReader(tt.input))

			if tt.wantErr != nil || tt.errMsg != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func bitsSwap(v uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return binary.BigEndian.Uint32(b[:])
}

func TestWriteHeader_RoundTrip(t *testing.T) {
	for _, endian := range []Endian{Little, Big} {
		t.Run(endian.String(), func(t *testing.T) {
			h := &Header{Endian: endian, EntryCount: 42, TotalSize: 0xDEADBEEF}
			h.Reserved[0] = 0x11
			h.Reserved[ReservedSize-1] = 0x22

			var buf bytes.Buffer
			require.NoError(t, WriteHeader(&buf, h))
			require.Equal(t, HeaderBlockSize, buf.Len())

			got, err := ReadHeader(&buf)
			require.NoError(t, err)
			assert.Equal(t, h, got)
		})
	}
}

func TestWriteHeader_MagicLayout(t *testing.T) {
	var le, be bytes.Buffer
	require.NoError(t, WriteHeader(&le, &Header{Endian: Little}))
	require.NoError(t, WriteHeader(&be, &Header{Endian: Big}))

	assert.Equal(t, []byte{0xCE, 0x0A, 0x89, 0x51, 0x03, 0x00, 0x00, 0x00}, le.Bytes()[:8])
	assert.Equal(t, []byte{0x51, 0x89, 0x0A, 0xCE, 0x00, 0x00, 0x00, 0x03}, be.Bytes()[:8])
}

func TestDirectoryRecord(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		wantName string
	}{
		{
			name:     "short name",
			entry:    Entry{Name: "a.txt", UncompressedSize: 5, CompressedSize: 5},
			wantName: "a.txt",
		},
		{
			name:     "23 byte name keeps terminator",
			entry:    Entry{Name: "abcdefghijklmnopqrs.tga", UncompressedSize: 1, CompressedSize: 1},
			wantName: "abcdefghijklmnopqrs.tga",
		},
		{
			name:     "24 byte name fills the field",
			entry:    Entry{Name: "abcdefghijklmnopqrst.tga", UncompressedSize: 10, CompressedSize: 3},
			wantName: "abcdefghijklmnopqrst.tga",
		},
		{
			name:     "long name is truncated",
			entry:    Entry{Name: "a_very_long_texture_name_indeed.peg", UncompressedSize: 7, CompressedSize: 7},
			wantName: "a_very_long_texture_name",
		},
		{
			name:     "empty name",
			entry:    Entry{Name: "", UncompressedSize: 0, CompressedSize: 0},
			wantName: "",
		},
	}

	for _, tt := range tests {
		for _, endian := range []Endian{Little, Big} {
			t.Run(tt.name+"/"+endian.String(), func(t *testing.T) {
				var buf bytes.Buffer
				require.NoError(t, WriteDirectoryRecord(&buf, tt.entry, endian))
				require.Equal(t, RecordSize, buf.Len())

				got, err := ReadDirectoryRecord(&buf, endian)
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, tt.entry.UncompressedSize, got.UncompressedSize)
				assert.Equal(t, tt.entry.CompressedSize, got.CompressedSize)
			})
		}
	}
}

func TestWriteDirectoryRecord_ZeroFill(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDirectoryRecord(&buf, Entry{Name: "a.txt", UncompressedSize: 5, CompressedSize: 5}, Little))

	want := make([]byte, RecordSize)
	copy(want, "a.txt")
	binary.LittleEndian.PutUint32(want[24:], 5)
	binary.LittleEndian.PutUint32(want[28:], 5)
	assert.Equal(t, want, buf.Bytes())
}

func TestWriteDirectoryRecord_InvalidName(t *testing.T) {
	for _, name := range []string{"café.txt", "nul\x00name"} {
		err := WriteDirectoryRecord(io.Discard, Entry{Name: name}, Little)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestReadDirectoryRecord_DiscardsTrailingBytes(t *testing.T) {
	record := make([]byte, RecordSize)
	copy(record, "x.txt\x00garbage")
	binary.BigEndian.PutUint32(record[24:], 100)
	binary.BigEndian.PutUint32(record[28:], 40)

	got, err := ReadDirectoryRecord(bytes.NewReader(record), Big)
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "x.txt", UncompressedSize: 100, CompressedSize: 40}, got)
	assert.True(t, got.IsCompressed())
}

func TestReadDirectoryRecord_Short(t *testing.T) {
	_, err := ReadDirectoryRecord(bytes.NewReader(make([]byte, 31)), Little)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriteZeros(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteZeros(&buf, 5000))
	assert.Equal(t, make([]byte, 5000), buf.Bytes())

	require.NoError(t, WriteZeros(&buf, 0))
	assert.Equal(t, 5000, buf.Len())
}
