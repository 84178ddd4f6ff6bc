package graphics

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/render"
	"github.com/gogpu/gpucontext"
)

var (
	_ Canvas = (*RasterCanvas)(nil)
	_ Canvas = (*recordingCanvas)(nil)
)

// ErrInvalidSurfaceSize is returned when a surface is requested with a
// zero or negative dimension.
var ErrInvalidSurfaceSize = errors.New("graphics: surface size must be positive")

// Device identifies a hardware rendering context. Each call to NewDevice
// returns a distinct identity, so a context recreated after the app returns
// from the background compares unequal to the one that allocated a surface.
type Device struct {
	render.NullDeviceHandle
	Name string
}

var _ gpucontext.DeviceProvider = (*Device)(nil)

// NewDevice returns a fresh device identity.
func NewDevice(name string) *Device {
	return &Device{Name: name}
}

// Surface is a raster render target that can be drawn into and later
// blitted as an image.
type Surface interface {
	// Canvas returns a canvas bound to the surface pixels.
	Canvas() Canvas
	// Width and Height return the pixel dimensions.
	Width() int
	Height() int
	// Image returns the pixels captured by the last Flush.
	Image() image.Image
	// CopyFrom copies other's flushed pixels when sizes match.
	CopyFrom(other Surface) bool
	// ClearRect zeroes the pixels inside r (surface coordinates).
	ClearRect(r Rect)
	// Device returns the hardware context the surface was allocated
	// against, or nil for CPU surfaces.
	Device() gpucontext.DeviceProvider
	// Flush finishes pending drawing and captures the pixels.
	Flush() error
	// Dispose releases the surface. Safe to call more than once.
	Dispose()
	// Disposed reports whether Dispose has run.
	Disposed() bool
}

// SurfaceAllocator produces CPU or hardware-tagged raster targets and
// reports the live hardware context.
type SurfaceAllocator interface {
	Allocate(width, height int, accelerated bool) (Surface, error)
	Device() gpucontext.DeviceProvider
}

// Allocator is the default SurfaceAllocator. Rasterization always happens on
// the CPU through gg; accelerated surfaces additionally remember the device
// that was live when they were created.
type Allocator struct {
	mu     sync.RWMutex
	device gpucontext.DeviceProvider
}

// NewAllocator returns an allocator bound to device (may be nil).
func NewAllocator(device gpucontext.DeviceProvider) *Allocator {
	return &Allocator{device: device}
}

// Device returns the live hardware context.
func (a *Allocator) Device() gpucontext.DeviceProvider {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.device
}

// SetDevice replaces the live hardware context, e.g. after context loss.
func (a *Allocator) SetDevice(device gpucontext.DeviceProvider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.device = device
}

// Allocate creates a cleared surface of the given size.
func (a *Allocator) Allocate(width, height int, accelerated bool) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSurfaceSize, width, height)
	}
	ctx := gg.NewContext(width, height)
	s := &rasterSurface{
		ctx:    ctx,
		canvas: NewRasterCanvas(ctx),
	}
	if accelerated {
		s.device = a.Device()
	}
	return s, nil
}

type rasterSurface struct {
	ctx      *gg.Context
	canvas   *RasterCanvas
	device   gpucontext.DeviceProvider
	mu       sync.RWMutex
	image    *image.RGBA
	disposed atomic.Bool
}

func (s *rasterSurface) Canvas() Canvas {
	return s.canvas
}

func (s *rasterSurface) Width() int {
	return s.ctx.Width()
}

func (s *rasterSurface) Height() int {
	return s.ctx.Height()
}

func (s *rasterSurface) Image() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.image == nil {
		return nil
	}
	return s.image
}

func (s *rasterSurface) CopyFrom(other Surface) bool {
	src, ok := other.(*rasterSurface)
	if !ok || src.Width() != s.Width() || src.Height() != s.Height() || src.Disposed() {
		return false
	}
	src.mu.RLock()
	defer src.mu.RUnlock()
	if src.image == nil {
		return false
	}
	copy(s.ctx.ResizeTarget().Data(), src.image.Pix)
	return true
}

func (s *rasterSurface) ClearRect(r Rect) {
	pm := s.ctx.ResizeTarget()
	bounds := image.Rect(
		int(r.Left), int(r.Top), int(r.Right+0.999), int(r.Bottom+0.999),
	).Intersect(image.Rect(0, 0, pm.Width(), pm.Height()))
	if bounds.Empty() {
		return
	}
	data := pm.Data()
	stride := pm.Width() * 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := data[y*stride+bounds.Min.X*4 : y*stride+bounds.Max.X*4]
		clear(row)
	}
}

func (s *rasterSurface) Device() gpucontext.DeviceProvider {
	return s.device
}

func (s *rasterSurface) Flush() error {
	if s.disposed.Load() {
		return errors.New("graphics: flush on disposed surface")
	}
	if err := s.ctx.FlushGPU(); err != nil {
		return err
	}
	img := s.ctx.ResizeTarget().ToImage()
	s.mu.Lock()
	s.image = img
	s.mu.Unlock()
	return nil
}

func (s *rasterSurface) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	_ = s.ctx.Close()
	s.mu.Lock()
	s.image = nil
	s.mu.Unlock()
}

func (s *rasterSurface) Disposed() bool {
	return s.disposed.Load()
}
