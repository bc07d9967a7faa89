package render

import "github.com/pnkrengine/core/rhi"

// fakeGPU implements just enough of rhi.GPU to exercise the renderer
// without a real backend.
type fakeGPU struct{}

func (fakeGPU) Driver() rhi.Driver                         { panic("not implemented") }
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
	fakeBufferAddrCounter += 0x1000
	return &fakeBuffer{data: make([]byte, size), addr: fakeBufferAddrCounter}, nil
}

// fakeBufferAddrCounter hands out distinct fake device addresses so
// tests can tell buffers apart without a real backend.
var fakeBufferAddrCounter uint64

func (fakeGPU) NewImage(pf rhi.PixelFmt, size rhi.Dim3D, layers, levels, samples int, usg rhi.Usage) (rhi.Image, error) {
	panic("not implemented")
}
func (fakeGPU) NewSampler(spln *rhi.Sampling) (rhi.Sampler, error) { panic("not implemented") }
func (fakeGPU) Limits() rhi.Limits                                 { return rhi.Limits{} }

type fakeBuffer struct {
	data      []byte
	destroyed bool
	addr      uint64
}

func (b *fakeBuffer) Destroy()              { b.destroyed = true }
func (b *fakeBuffer) Visible() bool         { return true }
func (b *fakeBuffer) Bytes() []byte         { return b.data }
func (b *fakeBuffer) Cap() int64            { return int64(len(b.data)) }
func (b *fakeBuffer) DeviceAddress() uint64 { return b.addr }

// fakeCmdBuffer records DrawIndexedIndirect calls, performs CopyBuffer
// between fake buffers and ignores every other command, since Draw's
// unit tests never exercise real rendering state setup.
type fakeCmdBuffer struct {
	indirectCalls []indirectCall
}

type indirectCall struct {
	off       int64
	drawCount int
	stride    int64
}

func (c *fakeCmdBuffer) Destroy() {}
func (c *fakeCmdBuffer) Begin() error { return nil }
func (c *fakeCmdBuffer) BeginPass(pass rhi.RenderPass, fb rhi.Framebuf, clear []rhi.ClearValue) {}
func (c *fakeCmdBuffer) NextSubpass()                                                           {}
func (c *fakeCmdBuffer) EndPass()                                                               {}
func (c *fakeCmdBuffer) BeginWork(wait bool)                                                    {}
func (c *fakeCmdBuffer) EndWork()                                                               {}
func (c *fakeCmdBuffer) BeginBlit(wait bool)                                                    {}
func (c *fakeCmdBuffer) EndBlit()                                                                {}
func (c *fakeCmdBuffer) SetPipeline(pl rhi.Pipeline)                                             {}
func (c *fakeCmdBuffer) SetViewport(vp []rhi.Viewport)                                           {}
func (c *fakeCmdBuffer) SetScissor(sciss []rhi.Scissor)                                          {}
func (c *fakeCmdBuffer) SetBlendColor(r, g, b, a float32)                                        {}
func (c *fakeCmdBuffer) SetStencilRef(value uint32)                                              {}
func (c *fakeCmdBuffer) SetVertexBuf(start int, buf []rhi.Buffer, off []int64)                   {}
func (c *fakeCmdBuffer) SetIndexBuf(format rhi.IndexFmt, buf rhi.Buffer, off int64)               {}
func (c *fakeCmdBuffer) SetDescTableGraph(table rhi.DescTable, start int, heapCopy []int)         {}
func (c *fakeCmdBuffer) SetDescTableComp(table rhi.DescTable, start int, heapCopy []int)          {}
func (c *fakeCmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int)                        {}
func (c *fakeCmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int)          {}
func (c *fakeCmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int)                             {}
func (c *fakeCmdBuffer) CopyBuffer(param *rhi.BufferCopy) {
	dst := param.To.Bytes()
	src := param.From.Bytes()
	copy(dst[param.ToOff:param.ToOff+param.Size], src[param.FromOff:param.FromOff+param.Size])
}
func (c *fakeCmdBuffer) CopyImage(param *rhi.ImageCopy)                                           {}
func (c *fakeCmdBuffer) CopyBufToImg(param *rhi.BufImgCopy)                                       {}
func (c *fakeCmdBuffer) CopyImgToBuf(param *rhi.BufImgCopy)                                       {}
func (c *fakeCmdBuffer) Fill(buf rhi.Buffer, off int64, value byte, size int64)                   {}

func (c *fakeCmdBuffer) DrawIndexedIndirect(buf rhi.Buffer, off int64, drawCount int, stride int64) {
	c.indirectCalls = append(c.indirectCalls, indirectCall{off, drawCount, stride})
}

func (c *fakeCmdBuffer) Barrier(b []rhi.Barrier)       {}
func (c *fakeCmdBuffer) Transition(t []rhi.Transition) {}
func (c *fakeCmdBuffer) End() error                    { return nil }
func (c *fakeCmdBuffer) Reset() error                  { return nil }
