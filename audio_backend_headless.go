//go:build headless

package tinaudio

// OtoDevice is inert when built headless; every mode opens successfully and
// output goes nowhere.
type OtoDevice struct {
	started bool
	opened  bool
}

func newOtoDevice(engine *AudioEngine) (*OtoDevice, error) {
	return &OtoDevice{}, nil
}

func (d *OtoDevice) Open(mode AudioMode) error {
	d.opened = true
	return nil
}

func (d *OtoDevice) Resume() {
	d.started = true
}

func (d *OtoDevice) Close() error {
	d.started = false
	d.opened = false
	return nil
}
