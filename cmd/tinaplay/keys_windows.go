//go:build windows

package main

import (
	"os"
	"sync"
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

	go func() {
		defer close(r.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-r.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				select {
				case r.keys <- buf[0]:
				default:
					// Drop keys nobody is consuming.
				}
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

// Stop terminates the reading goroutine and restores terminal state.
func (r *keyReader) Stop() {
	r.stopped.Do(func() {
		close(r.stopCh)
	})
	<-r.done
	if r.oldTermState != nil {
		_ = term.Restore(r.fd, r.oldTermState)
		r.oldTermState = nil
	}
}
