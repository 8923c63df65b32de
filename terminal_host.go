//go:build !windows

// terminal_host.go - raw stdin to Spectrum keyboard matrix.

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// TerminalHost reads raw stdin and injects the bytes into the keyboard
// matrix. Only instantiated in main.go for interactive use, never in
// tests.
type TerminalHost struct {
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State

	mutex sync.Mutex
	queue []byte

	held       []zxKey
	holdFrames int
}

func NewTerminalHost() *TerminalHost {
	return &TerminalHost{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start sets stdin to raw non-blocking mode and begins reading in a
// goroutine. Call Stop() to restore stdin.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				h.enqueue(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the stdin reading goroutine and restores stdin.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

func (h *TerminalHost) enqueue(b byte) {
	h.mutex.Lock()
	h.queue = append(h.queue, b)
	h.mutex.Unlock()
}

func (h *TerminalHost) dequeue() (byte, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.queue) == 0 {
		return 0, false
	}
	b := h.queue[0]
	h.queue = h.queue[1:]
	return b, true
}

// Pump is called once per emulated frame. Each queued byte is pressed
// into the matrix for a few frames so ROM keyboard scanning sees it.
func (h *TerminalHost) Pump(m *Machine) {
	if h.holdFrames > 0 {
		h.holdFrames--
		if h.holdFrames == 0 {
			for _, k := range h.held {
				m.KeyUp(k.row, k.bit)
			}
			h.held = nil
		}
		return
	}

	b, ok := h.dequeue()
	if !ok {
		return
	}
	keys, ok := zxKeyMatrix[b]
	if !ok {
		return
	}
	for _, k := range keys {
		m.KeyDown(k.row, k.bit)
	}
	h.held = keys
	h.holdFrames = 3
}
