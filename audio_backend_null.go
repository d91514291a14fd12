// audio_backend_null.go - device that accepts any mode and discards output

package tinaudio

import "sync"

// NullDevice backs tests and offline rendering: it opens for any mode, never
// pulls on its own and discards nothing because nothing flows through it.
// Callers drive the engine themselves via MixOutput.
type NullDevice struct {
	mutex   sync.Mutex
	opened  bool
	started bool
}

func newNullDevice() *NullDevice {
	return &NullDevice{}
}

func (d *NullDevice) Open(mode AudioMode) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.opened = true
	return nil
}

func (d *NullDevice) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.started = true
}

func (d *NullDevice) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.opened = false
	d.started = false
	return nil
}

func (d *NullDevice) IsOpen() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.opened
}

func (d *NullDevice) IsStarted() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.started
}
