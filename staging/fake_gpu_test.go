package staging

import "github.com/pnkrengine/core/rhi"

// fakeGPU implements just enough of rhi.GPU to exercise the ring
// allocator without a real backend: buffer creation returns an
// in-memory byte slice, Limits returns the zero value, and everything
// else panics if ever called.
type fakeGPU struct{}

func (fakeGPU) Driver() rhi.Driver { panic("not implemented") }
func (fakeGPU) Commit(cb []rhi.CmdBuffer, ch chan<- error) { panic("not implemented") }
func (fakeGPU) NewCmdBuffer() (rhi.CmdBuffer, error)       { panic("not implemented") }
func (fakeGPU) NewRenderPass(att []rhi.Attachment, sub []rhi.Subpass) (rhi.RenderPass, error) {
	panic("not implemented")
}
func (fakeGPU) NewShaderCode(data []byte) (rhi.ShaderCode, error) { panic("not implemented") }
func (fakeGPU) NewDescHeap(ds []rhi.Descriptor) (rhi.DescHeap, error) {
	panic("not implemented")
}
func (fakeGPU) NewDescTable(dh []rhi.DescHeap) (rhi.DescTable, error) {
	panic("not implemented")
}
func (fakeGPU) NewPipeline(state any) (rhi.Pipeline, error) { panic("not implemented") }

func (fakeGPU) NewBuffer(size int64, visible bool, usg rhi.Usage) (rhi.Buffer, error) {
	return &fakeBuffer{data: make([]byte, size)}, nil
}

func (fakeGPU) NewImage(pf rhi.PixelFmt, size rhi.Dim3D, layers, levels, samples int, usg rhi.Usage) (rhi.Image, error) {
	panic("not implemented")
}
func (fakeGPU) NewSampler(spln *rhi.Sampling) (rhi.Sampler, error) { panic("not implemented") }
func (fakeGPU) Limits() rhi.Limits                                 { return rhi.Limits{} }

// fakeBuffer implements rhi.Buffer over a plain byte slice.
type fakeBuffer struct {
	data      []byte
	destroyed bool
}

func (b *fakeBuffer) Destroy()              { b.destroyed = true }
func (b *fakeBuffer) Visible() bool         { return true }
func (b *fakeBuffer) Bytes() []byte         { return b.data }
func (b *fakeBuffer) Cap() int64            { return int64(len(b.data)) }
func (b *fakeBuffer) DeviceAddress() uint64 { return 0 }
