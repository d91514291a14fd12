//go:build !alsa || !linux

package tinaudio

import "fmt"

func newALSADevice(engine *AudioEngine) (OutputDevice, error) {
	return nil, fmt.Errorf("%w: alsa (build with -tags alsa on linux)", ErrBackendUnavailable)
}
