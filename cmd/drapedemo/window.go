//go:build !nogpu

package main

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/drape"
	"github.com/gogpu/drape/gpu/gles"
	"github.com/gogpu/drape/render"
)

// orbit moves the camera in response to keys: arrows pan, +/- zoom,
// [/] turn and PageUp/PageDown tilt.
type orbit struct {
	camera render.Camera
}

func (o *orbit) onKey(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	step := o.camera.Position.Altitude / 1e6
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyUp:
		o.camera.Position.Latitude = min(o.camera.Position.Latitude+step, 89)
	case glfw.KeyDown:
		o.camera.Position.Latitude = max(o.camera.Position.Latitude-step, -89)
	case glfw.KeyLeft:
		o.camera.Position.Longitude -= step
	case glfw.KeyRight:
		o.camera.Position.Longitude += step
	case glfw.KeyEqual, glfw.KeyKPAdd:
		o.camera.Position.Altitude = max(o.camera.Position.Altitude*0.8, 1e4)
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		o.camera.Position.Altitude = min(o.camera.Position.Altitude*1.25, 5e7)
	case glfw.KeyLeftBracket:
		o.camera.Heading -= 5
	case glfw.KeyRightBracket:
		o.camera.Heading += 5
	case glfw.KeyPageUp:
		o.camera.Tilt = min(o.camera.Tilt+5, 80)
	case glfw.KeyPageDown:
		o.camera.Tilt = max(o.camera.Tilt-5, 0)
	}
	if o.camera.Position.Longitude > 180 {
		o.camera.Position.Longitude -= 360
	} else if o.camera.Position.Longitude < -180 {
		o.camera.Position.Longitude += 360
	}
}

func runWindow(cfg config) error {
	// GL calls must come from the thread that owns the context.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)

	window, err := glfw.CreateWindow(cfg.width, cfg.height, "drape", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	dev, err := gles.New()
	if err != nil {
		return err
	}
	defer dev.Release()

	r, err := drape.NewRenderer(dev, cfg.options()...)
	if err != nil {
		return err
	}
	defer r.Close()

	o := &orbit{camera: cfg.camera}
	window.SetKeyCallback(o.onKey)

	shapes := buildScene(cfg.outlineTexture)
	frames := 0
	last := time.Now()
	for !window.ShouldClose() {
		fbWidth, fbHeight := window.GetFramebufferSize()
		if fbWidth > 0 && fbHeight > 0 {
			if _, err := r.RenderFrame(drape.Frame{
				Camera:   o.camera,
				Viewport: cfg.viewport(fbWidth, fbHeight),
				Shapes:   shapes,
			}); err != nil {
				return err
			}
		}
		window.SwapBuffers()
		glfw.PollEvents()

		frames++
		if elapsed := time.Since(last); elapsed >= 5*time.Second {
			log.Printf("%.1f fps", float64(frames)/elapsed.Seconds())
			frames, last = 0, time.Now()
		}
	}
	return nil
}
