// Package texstream implements the engine's texture streamer (C6):
// it walks a texture's mip/layer/face/row space one staging-sized
// copy at a time, in an order controlled by Direction, returning each
// planned copy to its caller; it does not stage or submit the copy
// itself.
package texstream

import "github.com/pnkrengine/core/rhi"

// Direction controls whether a Request streams its coarsest mip
// first (the default, so a texture is usable at low fidelity as soon
// as possible) or its finest mip first (for assets where the first
// visible frame should already be full quality, at the cost of a
// longer time-to-first-pixel).
type Direction int

const (
	// LowToHighRes streams the smallest mip level first.
	LowToHighRes Direction = iota
	// HighToLowRes streams the largest mip level first.
	HighToLowRes
)

// BlockFormat describes the compressed (or uncompressed, 1x1x1)
// block geometry of a pixel format, in the units PlanNextCopy needs
// to compute a row's byte size.
type BlockFormat struct {
	Width, Height int
	BytesPerBlock int
}

// blockFormats maps the pixel formats the streamer knows how to walk
// block-by-block. Uncompressed formats use a 1x1 "block".
var blockFormats = map[rhi.PixelFmt]BlockFormat{
	rhi.RGBA8un:   {1, 1, 4},
	rhi.RGBA8n:    {1, 1, 4},
	rhi.RGBA8sRGB: {1, 1, 4},
	rhi.BGRA8un:   {1, 1, 4},
	rhi.BGRA8sRGB: {1, 1, 4},
	rhi.RG8un:     {1, 1, 2},
	rhi.RG8n:      {1, 1, 2},
	rhi.R8un:      {1, 1, 1},
	rhi.R8n:       {1, 1, 1},
	rhi.RGBA16f:   {1, 1, 8},
	rhi.RG16f:     {1, 1, 4},
	rhi.R16f:      {1, 1, 2},
	rhi.RGBA32f:   {1, 1, 16},
	rhi.RG32f:     {1, 1, 8},
	rhi.R32f:      {1, 1, 4},
}

// BC7 is registered separately since BC7 is the engine's standard
// compressed color format (see original_source's BC7Encoder) and is
// not one of rhi's built-in PixelFmt constants; callers that stream
// BC7 textures register it once via RegisterBlockFormat.
func RegisterBlockFormat(pf rhi.PixelFmt, bf BlockFormat) { blockFormats[pf] = bf }

func blockFormatFor(pf rhi.PixelFmt) BlockFormat {
	if bf, ok := blockFormats[pf]; ok {
		return bf
	}
	return BlockFormat{1, 1, 4} // conservative fallback
}

// LevelExtent is the pixel dimensions of a single mip level.
type LevelExtent struct{ Width, Height, Depth int }

// MipChain describes the full extent of the texture a Request walks.
type MipChain struct {
	Format rhi.PixelFmt
	Levels []LevelExtent
	Layers int // array layers (or cube faces * array length)
	Faces  int // 1 for 2D, 6 for cube
}

func (m *MipChain) levelOf(level int) LevelExtent { return m.Levels[level] }

// cursor is the request's current walk position.
type cursor struct {
	Level, Layer, Face, Row int
}

// Copy is one planned transfer: a run of consecutive block rows at a
// specific level/layer/face, as many of the remaining rows as fit the
// byte budget given to PlanNextCopy (at least one).
type Copy struct {
	Level, Layer, Face int
	RowStart, RowCount int
	RowBytes           int64
	Offset             rhi.Off3D
	Extent             rhi.Dim3D
}

// Request tracks one in-progress texture upload.
type Request struct {
	chain     MipChain
	dir       Direction
	cur       cursor
	done      bool
	levelSeq  []int // level visit order per Direction
}

// NewRequest begins streaming chain in the given direction.
func NewRequest(chain MipChain, dir Direction) *Request {
	seq := make([]int, len(chain.Levels))
	if dir == LowToHighRes {
		for i := range seq {
			seq[i] = len(chain.Levels) - 1 - i
		}
	} else {
		for i := range seq {
			seq[i] = i
		}
	}
	r := &Request{chain: chain, dir: dir, levelSeq: seq}
	r.cur = cursor{Level: seq[0]}
	return r
}

// Done reports whether every level/layer/face/row has been planned.
func (r *Request) Done() bool { return r.done }

// seqIndex returns the position of level within levelSeq.
func (r *Request) seqIndex(level int) int {
	for i, l := range r.levelSeq {
		if l == level {
			return i
		}
	}
	return -1
}

// PlanNextCopy computes the Copy for the request's current cursor
// position, sized so its byte count fits within maxBytes (a staging
// reservation's budget), then advances the cursor.
// It returns ok=false once the request is done.
func (r *Request) PlanNextCopy(maxBytes int64) (c Copy, ok bool) {
	if r.done {
		return Copy{}, false
	}
	bf := blockFormatFor(r.chain.Format)
	ext := r.chain.levelOf(r.cur.Level)
	blocksWide := (ext.Width + bf.Width - 1) / bf.Width
	blocksHigh := (ext.Height + bf.Height - 1) / bf.Height
	rowBytes := int64(blocksWide * bf.BytesPerBlock)

	rowsPerCopy := blocksHigh - r.cur.Row
	if rowBytes > 0 {
		if budget := maxBytes / rowBytes; budget > 0 && int(budget) < rowsPerCopy {
			rowsPerCopy = int(budget)
		} else if budget <= 0 {
			rowsPerCopy = 1 // always make progress, even over budget
		}
	}
	if rowsPerCopy < 1 {
		rowsPerCopy = 1
	}

	c = Copy{
		Level:    r.cur.Level,
		Layer:    r.cur.Layer,
		Face:     r.cur.Face,
		RowStart: r.cur.Row,
		RowCount: rowsPerCopy,
		RowBytes: rowBytes,
		Offset:   rhi.Off3D{Y: r.cur.Row * bf.Height},
		Extent:   rhi.Dim3D{Width: ext.Width, Height: rowsPerCopy * bf.Height, Depth: 1},
	}
	r.advanceRequestState(blocksHigh, rowsPerCopy)
	return c, true
}

// advanceRequestState moves the cursor past the rows just planned,
// rolling over face -> layer -> level as each dimension completes.
func (r *Request) advanceRequestState(blocksHigh, rowsConsumed int) {
	r.cur.Row += rowsConsumed
	if r.cur.Row < blocksHigh {
		return
	}
	r.cur.Row = 0
	r.cur.Face++
	if r.cur.Face < max1(r.chain.Faces) {
		return
	}
	r.cur.Face = 0
	r.cur.Layer++
	if r.cur.Layer < max1(r.chain.Layers) {
		return
	}
	r.cur.Layer = 0
	idx := r.seqIndex(r.cur.Level) + 1
	if idx >= len(r.levelSeq) {
		r.done = true
		return
	}
	r.cur.Level = r.levelSeq[idx]
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
