//go:build windows

package overlay

import (
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"screen-sniper/src/geometry"
	"screen-sniper/src/screenshot"
	"screen-sniper/src/selection"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	keyPollTimerID    = 1
	keyPollIntervalMs = 25

	wmAppHide = win.WM_APP + 1
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procAllowSetForegroundWindow = user32.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")
)

var (
	classOnce sync.Once
	classErr  error
	className *uint16

	surfacesMu sync.Mutex
	surfaces   = map[win.HWND]*winSurface{}
)

// Activate lifts the foreground lock for this process so the next overlay can
// take focus even though the capture was started from a background hook.
func Activate() {
	if ret, _, err := procAllowSetForegroundWindow.Call(uintptr(windows.GetCurrentProcessId())); ret == 0 {
		log.Printf("overlay: AllowSetForegroundWindow failed: %v", err)
	}
}

// NewFactory returns surfaces backed by a topmost Win32 popup that
// shows a frozen copy of the display underneath the selection.
func NewFactory() Factory {
	return func(display screenshot.Display) (Surface, error) {
		background, err := screenshot.CaptureDisplay(display)
		if err != nil {
			return nil, fmt.Errorf("failed to capture overlay background: %w", err)
		}
		w := float64(display.Bounds.Dx())
		h := float64(display.Bounds.Dy())
		return &winSurface{
			display:    display,
			bounds:     geometry.Rect{W: w, H: h},
			background: background,
			dimmed:     Dim(background),
			canvas:     image.NewRGBA(image.Rect(0, 0, display.Bounds.Dx(), display.Bounds.Dy())),
		}, nil
	}
}

type winSurface struct {
	display    screenshot.Display
	bounds     geometry.Rect
	background *image.RGBA
	dimmed     *image.RGBA

	mu     sync.Mutex
	canvas *image.RGBA
	input  Input
	hwnd   win.HWND

	dragging   bool
	escapeDown bool
	closeOnce  sync.Once
}

func (s *winSurface) Bounds() geometry.Rect        { return s.bounds }
func (s *winSurface) WindowOrigin() geometry.Point { return geometry.Point{} }
func (s *winSurface) ScreenFrame() geometry.Rect   { return s.bounds }
func (s *winSurface) Scale() float64               { return 1 }

// Show starts a dedicated OS thread that owns the window and its message loop.
func (s *winSurface) Show(input Input) error {
	s.input = input
	ready := make(chan error, 1)
	go s.run(ready)
	return <-ready
}

func (s *winSurface) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := registerClass(); err != nil {
		ready <- err
		return
	}

	b := s.display.Bounds
	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Select a region"),
		win.WS_POPUP,
		int32(b.Min.X), int32(b.Min.Y), int32(b.Dx()), int32(b.Dy()),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		ready <- errors.New("failed to create overlay window")
		return
	}

	s.mu.Lock()
	s.hwnd = hwnd
	s.mu.Unlock()
	surfacesMu.Lock()
	surfaces[hwnd] = s
	surfacesMu.Unlock()

	win.ShowWindow(hwnd, win.SW_SHOW)
	win.SetForegroundWindow(hwnd)
	win.BringWindowToTop(hwnd)
	win.SetFocus(hwnd)
	win.UpdateWindow(hwnd)
	if win.SetTimer(hwnd, keyPollTimerID, keyPollIntervalMs, 0) == 0 {
		log.Printf("overlay: failed to start keyboard poll timer")
	}
	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	log.Printf("overlay: message loop ended")
}

func registerClass() error {
	classOnce.Do(func() {
		className = syscall.StringToUTF16Ptr("ScreenSniperOverlay")
		wc := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			Style:         win.CS_HREDRAW | win.CS_VREDRAW,
			LpfnWndProc:   syscall.NewCallback(wndProc),
			HInstance:     win.GetModuleHandle(nil),
			HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
			LpszClassName: className,
		}
		if win.RegisterClassEx(&wc) == 0 {
			classErr = errors.New("failed to register overlay window class")
		}
	})
	return classErr
}

// Render composes the frame off the window thread and asks for a repaint.
func (s *winSurface) Render(frame selection.Frame) {
	s.mu.Lock()
	Compose(s.canvas, s.background, s.dimmed, frame, 1)
	hwnd := s.hwnd
	s.mu.Unlock()
	if hwnd != 0 {
		win.InvalidateRect(hwnd, nil, false)
	}
}

// Hide blocks until the window thread has ordered the window out.
func (s *winSurface) Hide() {
	if hwnd := s.handle(); hwnd != 0 {
		win.SendMessage(hwnd, wmAppHide, 0, 0)
	}
}

func (s *winSurface) Close() {
	s.closeOnce.Do(func() {
		if hwnd := s.handle(); hwnd != 0 {
			win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
		}
	})
}

func (s *winSurface) handle() win.HWND {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hwnd
}

func lookup(hwnd win.HWND) *winSurface {
	surfacesMu.Lock()
	defer surfacesMu.Unlock()
	return surfaces[hwnd]
}

func clientPoint(s *winSurface, lParam uintptr) geometry.Point {
	x := int(int16(win.LOWORD(uint32(lParam))))
	y := int(int16(win.HIWORD(uint32(lParam))))
	return ViewPoint(x, y, s.bounds.H, 1)
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	s := lookup(hwnd)
	if s == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		s.dragging = true
		s.input.MouseDown(clientPoint(s, lParam))
		return 0

	case win.WM_MOUSEMOVE:
		if s.dragging {
			s.input.MouseDragged(clientPoint(s, lParam))
		}
		return 0

	case win.WM_LBUTTONUP:
		if s.dragging {
			s.dragging = false
			win.ReleaseCapture()
			s.input.MouseUp(clientPoint(s, lParam))
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			s.escapeDown = true
			s.input.Escape()
		}
		return 0

	case win.WM_KEYUP:
		if wParam == win.VK_ESCAPE {
			s.escapeDown = false
		}
		return 0

	case win.WM_TIMER:
		// Focus can be stolen by the window that had it before the hotkey fired.
		if wParam == keyPollTimerID {
			state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
			down := uint16(state)&0x8000 != 0
			if down && !s.escapeDown {
				s.input.Escape()
			}
			s.escapeDown = down
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		s.paint(hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case wmAppHide:
		win.KillTimer(hwnd, keyPollTimerID)
		win.ShowWindow(hwnd, win.SW_HIDE)
		return 0

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, keyPollTimerID)
		surfacesMu.Lock()
		delete(surfaces, hwnd)
		surfacesMu.Unlock()
		// Each surface owns its thread, so quitting here only ends this loop.
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (s *winSurface) paint(hdc win.HDC) {
	s.mu.Lock()
	defer s.mu.Unlock()

	width := s.canvas.Bounds().Dx()
	height := s.canvas.Bounds().Dy()

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	info := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       int32(width),
		BiHeight:      -int32(height),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	bitmap := win.CreateDIBSection(memDC, &info, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(bitmap))
	old := win.SelectObject(memDC, win.HGDIOBJ(bitmap))
	defer win.SelectObject(memDC, old)

	// 32bpp rows are already DWORD aligned, so the DIB stride matches the canvas.
	dst := unsafe.Slice((*byte)(bits), width*height*4)
	src := s.canvas.Pix
	for i := 0; i+3 < len(dst) && i+3 < len(src); i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = 255
	}
	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
