//go:build windows

package notification

import (
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

const (
	toastWidth   = 400
	toastHeight  = 100
	toastMargin  = 20
	closeTimerID = 1
	closeAfterMs = 3000
	className    = "ScreenSniperToast"
)

type toast struct {
	title, text string
}

type winNotifier struct {
	once  sync.Once
	queue chan toast
}

// current is only touched on the toast thread.
var current toast

// New returns a notifier that shows a topmost, non-activating toast in the
// lower-left corner for three seconds. Clicking it closes it early.
func New() Notifier {
	return &winNotifier{queue: make(chan toast, 10)}
}

func (n *winNotifier) Notify(title, text string) {
	n.once.Do(func() { go n.run() })
	select {
	case n.queue <- toast{title: title, text: Truncate(text, MaxTextLen)}:
	default:
		log.Printf("notification: queue full, dropping %q", title)
	}
}

// run shows toasts one at a time on a dedicated OS thread.
func (n *winNotifier) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notification: PANIC in toast thread: %v", r)
		}
	}()

	cls := syscall.StringToUTF16Ptr(className)
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(toastProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
		HbrBackground: win.HBRUSH(win.COLOR_WINDOW + 1),
		LpszClassName: cls,
	}
	if win.RegisterClassEx(&wc) == 0 {
		log.Printf("notification: failed to register toast window class")
		return
	}

	for t := range n.queue {
		current = t
		show(cls)
	}
}

func show(cls *uint16) {
	screenHeight := win.GetSystemMetrics(win.SM_CYSCREEN)
	hwnd := win.CreateWindowEx(
		win.WS_EX_NOACTIVATE|win.WS_EX_TOOLWINDOW|win.WS_EX_TOPMOST|win.WS_EX_CLIENTEDGE,
		cls,
		syscall.StringToUTF16Ptr(current.title),
		win.WS_POPUP|win.WS_VISIBLE,
		toastMargin, screenHeight-toastHeight-toastMargin, toastWidth, toastHeight,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		log.Printf("notification: failed to create toast window")
		return
	}
	win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
	win.UpdateWindow(hwnd)
	win.SetTimer(hwnd, closeTimerID, closeAfterMs, 0)

	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func toastProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		win.SetBkMode(hdc, win.TRANSPARENT)
		body := current.title + "\n" + current.text
		rect := win.RECT{Left: 10, Top: 10, Right: toastWidth - 10, Bottom: toastHeight - 10}
		win.DrawTextEx(hdc, syscall.StringToUTF16Ptr(body), -1, &rect, win.DT_WORDBREAK, nil)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_TIMER, win.WM_LBUTTONDOWN, win.WM_RBUTTONDOWN:
		win.KillTimer(hwnd, closeTimerID)
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		// Ends show's loop; the next toast starts a fresh one on this thread.
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// ShowBlockingError displays a modal, blocking error dialog and returns after the user dismisses it.
func ShowBlockingError(title, message string) {
	win.MessageBox(0, syscall.StringToUTF16Ptr(message), syscall.StringToUTF16Ptr(title),
		win.MB_OK|win.MB_ICONERROR|win.MB_SYSTEMMODAL)
}
