//go:build gl && cgo

package gpu

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Mu-L/nn-vis/internal/logging"
)

// GLDevice drives buffers through an OpenGL 4.3 core context. The context
// lives on a hidden window and is bound to the OS thread that created the
// device; every call must come from that thread.
type GLDevice struct {
	window *glfw.Window
	name   string
}

// NewGLDevice creates a hidden OpenGL 4.3 core context and makes it
// current on the calling thread.
func NewGLDevice() (*GLDevice, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("initializing glfw: %w", err)
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(1, 1, "nnvis", nil, nil)
	if err != nil {
		glfw.Terminate()
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("creating OpenGL 4.3 context: %w", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("loading OpenGL functions: %w", err)
	}

	d := &GLDevice{
		window: win,
		name:   gl.GoStr(gl.GetString(gl.RENDERER)),
	}
	logging.Infof("OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), d.name)
	return d, nil
}

func (d *GLDevice) Type() DeviceType { return DeviceTypeGPU }
func (d *GLDevice) Name() string     { return d.name }

func (d *GLDevice) QueryLimits() (Limits, error) {
	var blockSize int64
	var bindings, attribs int32
	gl.GetInteger64v(gl.MAX_SHADER_STORAGE_BLOCK_SIZE, &blockSize)
	gl.GetIntegerv(gl.MAX_SHADER_STORAGE_BUFFER_BINDINGS, &bindings)
	gl.GetIntegerv(gl.MAX_VERTEX_ATTRIBS, &attribs)
	if err := glError("query limits"); err != nil {
		return Limits{}, fmt.Errorf("%w: %v", ErrDeviceLimitQuery, err)
	}

	// a block size above what an int can address is clamped
	if blockSize > int64(^uint(0)>>1) {
		blockSize = int64(^uint(0) >> 1)
	}
	return Limits{
		MaxStorageBlockSize: int(blockSize),
		MaxStorageBindings:  int(bindings),
		MaxVertexAttribs:    int(attribs),
	}, nil
}

func (d *GLDevice) CreateHandle() (Handle, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return Handle{}, fmt.Errorf("glGenBuffers returned no buffer: %v", glError("create buffer"))
	}
	return Handle{id: id}, nil
}

func (d *GLDevice) Upload(h Handle, target Target, data []byte) error {
	// detach any vertex array so the upload cannot alter its state
	gl.BindVertexArray(0)

	t := glTarget(target)
	gl.BindBuffer(t, h.id)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(t, len(data), ptr, gl.STATIC_DRAW)
	return glError("upload")
}

func (d *GLDevice) Download(h Handle, target Target, size int) ([]byte, error) {
	t := glTarget(target)
	gl.BindBuffer(t, h.id)
	out := make([]byte, size)
	if size > 0 {
		gl.GetBufferSubData(t, 0, size, gl.Ptr(out))
	}
	if err := glError("download"); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *GLDevice) Clear(h Handle, target Target, elem ElementType) error {
	t := glTarget(target)
	gl.BindBuffer(t, h.id)
	switch elem {
	case Int32:
		gl.ClearBufferData(t, gl.RGBA32I, gl.RGBA_INTEGER, gl.INT, nil)
	case Uint32:
		gl.ClearBufferData(t, gl.RGBA32UI, gl.RGBA_INTEGER, gl.UNSIGNED_INT, nil)
	default:
		gl.ClearBufferData(t, gl.RGBA32F, gl.RGBA, gl.FLOAT, nil)
	}
	return glError("clear")
}

func (d *GLDevice) BindStorage(h Handle, index int) error {
	if index < 0 {
		return fmt.Errorf("storage binding %d: %w", index, ErrInvalidBindLocation)
	}
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(index), h.id)
	return glError("bind storage")
}

func (d *GLDevice) BindAttributes(h Handle, attrs []Attribute, stride, divisor int) error {
	for _, a := range attrs {
		if a.Location < 0 {
			return fmt.Errorf("attribute location %d: %w", a.Location, ErrInvalidBindLocation)
		}
	}

	// attribute pointers are recorded in the vertex array the caller has bound
	gl.BindBuffer(gl.ARRAY_BUFFER, h.id)
	for _, a := range attrs {
		loc := uint32(a.Location)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, int32(a.Components), gl.FLOAT, false, int32(stride), gl.PtrOffset(a.Offset))
		gl.VertexAttribDivisor(loc, uint32(divisor))
	}
	return glError("bind attributes")
}

func (d *GLDevice) DeleteHandle(h Handle) error {
	id := h.id
	gl.DeleteBuffers(1, &id)
	return glError("delete buffer")
}

// MemoryUsage is not reported by core OpenGL
func (d *GLDevice) MemoryUsage() (int64, int64) {
	return 0, 0
}

func (d *GLDevice) Free() error {
	forgetLimits(d)
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
	glfw.Terminate()
	runtime.UnlockOSThread()
	return nil
}

func glTarget(t Target) uint32 {
	if t == TargetArray {
		return gl.ARRAY_BUFFER
	}
	return gl.SHADER_STORAGE_BUFFER
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl %s: error 0x%x", op, code)
	}
	return nil
}
