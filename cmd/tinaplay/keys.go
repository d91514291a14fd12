//go:build !windows

package main

import (
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// keyReader reads raw stdin one byte at a time and delivers keys on a
// channel. Only instantiated for interactive use - never in tests.
type keyReader struct {
	keys         chan byte
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func newKeyReader() *keyReader {
	return &keyReader{
		keys:   make(chan byte, 8),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (r *keyReader) Keys() <-chan byte {
	return r.keys
}

// Start puts the terminal in raw mode and begins reading in a goroutine.
// Call Stop() to restore stdin.
func (r *keyReader) Start() error {
	r.fd = int(os.Stdin.Fd())

	// Raw mode disables OS-level echo and line buffering so single
	// keypresses arrive immediately.
	oldState, err := term.MakeRaw(r.fd)
	if err != nil {
		close(r.done)
		return err
	}
	r.oldTermState = oldState

	if err := syscall.SetNonblock(r.fd, true); err != nil {
		_ = term.Restore(r.fd, r.oldTermState)
		r.oldTermState = nil
		close(r.done)
		return err
	}
	r.nonblockSet = true

	go func() {
		defer close(r.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-r.stopCh:
				return
			default:
			}

			n, err := syscall.Read(r.fd, buf)
			if n > 0 {
				select {
				case r.keys <- buf[0]:
				default:
					// Drop keys nobody is consuming.
				}
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
	return nil
}

// Stop terminates the reading goroutine and restores stdin to blocking mode.
func (r *keyReader) Stop() {
	r.stopped.Do(func() {
		close(r.stopCh)
	})
	<-r.done
	if r.nonblockSet {
		_ = syscall.SetNonblock(r.fd, false)
		r.nonblockSet = false
	}
	if r.oldTermState != nil {
		_ = term.Restore(r.fd, r.oldTermState)
		r.oldTermState = nil
	}
}
