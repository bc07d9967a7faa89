// Package cache implements the engine's persisted binary cache
// format: a small chunked container (magic + version + chunk count
// header, then one fixed ChunkHeader + payload per chunk) used to
// store preprocessed asset data - material tables, string tables,
// serialized scene hierarchies - so a later run can skip
// reimporting from source.
package cache

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// magic identifies a cache file. Its hex digits spell "PNKR"; since
// the header is little-endian, the first four bytes on disk read "RKNP".
const magic uint32 = 0x504E4B52

const formatVersion uint16 = 1

// FourCC builds a chunk type tag from a 4-character string, e.g.
// FourCC("MATL") for a material table chunk.
func FourCC(s string) uint32 {
	if len(s) != 4 {
		panic("cache: FourCC requires exactly 4 characters")
	}
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

// Header is the fixed file header written at offset 0 and rewritten
// once the final chunk count is known.
type Header struct {
	Magic      uint32
	Version    uint16
	Endian     uint16 // 1 means little-endian payloads
	ChunkCount uint32
}

const headerSize = 4 + 2 + 2 + 4

// ChunkHeader precedes every chunk's payload.
type ChunkHeader struct {
	FourCC    uint32
	Version   uint16
	Flags     uint16
	SizeBytes uint64
}

const chunkHeaderSize = 4 + 2 + 2 + 8

// Writer appends chunks to an io.WriteSeeker and patches the file
// header with the final chunk count on Close.
type Writer struct {
	w      io.WriteSeeker
	header Header
}

// NewWriter reserves space for the file header (rewritten by Close)
// and returns a Writer ready to accept chunks.
func NewWriter(w io.WriteSeeker) (*Writer, error) {
	cw := &Writer{w: w, header: Header{Magic: magic, Version: formatVersion, Endian: 1}}
	if err := cw.writeHeader(); err != nil {
		return nil, errors.Wrap(err, "cache: writing placeholder header")
	}
	return cw, nil
}

func (c *Writer) writeHeader() error {
	var buf [headerSize]byte
	binary.LittleEndian.PutUint32(buf[0:], c.header.Magic)
	binary.LittleEndian.PutUint16(buf[4:], c.header.Version)
	binary.LittleEndian.PutUint16(buf[6:], c.header.Endian)
	binary.LittleEndian.PutUint32(buf[8:], c.header.ChunkCount)
	if _, err := c.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := c.w.Write(buf[:])
	return err
}

// WriteChunk appends a raw-bytes chunk. data is written verbatim;
// callers are responsible for encoding it (typically with
// encoding/binary into a []byte built ahead of time).
func (c *Writer) WriteChunk(fourcc uint32, version uint16, data []byte) error {
	if _, err := c.w.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "cache: seeking to end for chunk append")
	}
	ch := ChunkHeader{FourCC: fourcc, Version: version, SizeBytes: uint64(len(data))}
	var hbuf [chunkHeaderSize]byte
	binary.LittleEndian.PutUint32(hbuf[0:], ch.FourCC)
	binary.LittleEndian.PutUint16(hbuf[4:], ch.Version)
	binary.LittleEndian.PutUint16(hbuf[6:], ch.Flags)
	binary.LittleEndian.PutUint64(hbuf[8:], ch.SizeBytes)
	if _, err := c.w.Write(hbuf[:]); err != nil {
		return errors.Wrap(err, "cache: writing chunk header")
	}
	if len(data) > 0 {
		if _, err := c.w.Write(data); err != nil {
			return errors.Wrap(err, "cache: writing chunk payload")
		}
	}
	c.header.ChunkCount++
	return nil
}

// WriteStringListChunk appends a chunk encoding a list of strings as
// a uint64 count followed by (uint64 length, bytes) pairs.
func (c *Writer) WriteStringListChunk(fourcc uint32, version uint16, strs []string) error {
	size := 8
	for _, s := range strs {
		size += 8 + len(s)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf, uint64(len(strs)))
	off := 8
	for _, s := range strs {
		binary.LittleEndian.PutUint64(buf[off:], uint64(len(s)))
		off += 8
		copy(buf[off:], s)
		off += len(s)
	}
	return c.WriteChunk(fourcc, version, buf)
}

// Close rewrites the file header with the final chunk count. It does
// not close the underlying writer.
func (c *Writer) Close() error {
	return errors.Wrap(c.writeHeader(), "cache: writing final header")
}

// ChunkInfo is a chunk's header plus the file offset of its payload,
// as returned by Reader.ListChunks.
type ChunkInfo struct {
	Header       ChunkHeader
	PayloadOffset int64
}

// Reader lists and reads chunks from a cache file previously written
// by Writer.
type Reader struct {
	r      io.ReadSeeker
	header Header
}

// NewReader reads and validates the file header.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, errors.Wrap(err, "cache: reading header")
	}
	h := Header{
		Magic:      binary.LittleEndian.Uint32(buf[0:]),
		Version:    binary.LittleEndian.Uint16(buf[4:]),
		Endian:     binary.LittleEndian.Uint16(buf[6:]),
		ChunkCount: binary.LittleEndian.Uint32(buf[8:]),
	}
	if h.Magic != magic {
		return nil, errors.Errorf("cache: bad magic %#x, want %#x", h.Magic, magic)
	}
	if h.Version != formatVersion {
		return nil, errors.Errorf("cache: unsupported version %d, want %d", h.Version, formatVersion)
	}
	return &Reader{r: r, header: h}, nil
}

// Header returns the file's parsed header.
func (c *Reader) Header() Header { return c.header }

// ListChunks walks every chunk header in file order.
func (c *Reader) ListChunks() ([]ChunkInfo, error) {
	if _, err := c.r.Seek(headerSize, io.SeekStart); err != nil {
		return nil, err
	}
	chunks := make([]ChunkInfo, 0, c.header.ChunkCount)
	for i := uint32(0); i < c.header.ChunkCount; i++ {
		var hbuf [chunkHeaderSize]byte
		if _, err := io.ReadFull(c.r, hbuf[:]); err != nil {
			return nil, errors.Wrapf(err, "cache: reading chunk header %d", i)
		}
		ch := ChunkHeader{
			FourCC:    binary.LittleEndian.Uint32(hbuf[0:]),
			Version:   binary.LittleEndian.Uint16(hbuf[4:]),
			Flags:     binary.LittleEndian.Uint16(hbuf[6:]),
			SizeBytes: binary.LittleEndian.Uint64(hbuf[8:]),
		}
		off, err := c.r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ChunkInfo{Header: ch, PayloadOffset: off})
		if _, err := c.r.Seek(int64(ch.SizeBytes), io.SeekCurrent); err != nil {
			return nil, errors.Wrapf(err, "cache: skipping chunk payload %d", i)
		}
	}
	return chunks, nil
}

// ReadChunk reads info's raw payload bytes.
func (c *Reader) ReadChunk(info ChunkInfo) ([]byte, error) {
	if _, err := c.r.Seek(info.PayloadOffset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, info.Header.SizeBytes)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, errors.Wrap(err, "cache: reading chunk payload")
	}
	return buf, nil
}

// ReadStringListChunk decodes a chunk written by WriteStringListChunk.
func (c *Reader) ReadStringListChunk(info ChunkInfo) ([]string, error) {
	buf, err := c.ReadChunk(info)
	if err != nil {
		return nil, err
	}
	if len(buf) < 8 {
		return nil, errors.New("cache: string list chunk truncated")
	}
	n := binary.LittleEndian.Uint64(buf)
	strs := make([]string, 0, n)
	off := 8
	for i := uint64(0); i < n; i++ {
		if off+8 > len(buf) {
			return nil, errors.New("cache: string list chunk truncated at length prefix")
		}
		l := int(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
		if off+l > len(buf) {
			return nil, errors.New("cache: string list chunk truncated at string data")
		}
		strs = append(strs, string(buf[off:off+l]))
		off += l
	}
	return strs, nil
}
