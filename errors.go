package screenfx

import "errors"

var (
	// ErrNoDevice is returned when New gets a nil device or queue.
	ErrNoDevice = errors.New("screenfx: nil device or queue")

	// ErrNilProvider is returned when NewFromProvider gets a nil provider.
	ErrNilProvider = errors.New("screenfx: nil DeviceProvider")

	// ErrNoHAL is returned when a DeviceProvider does not expose HAL types.
	ErrNoHAL = errors.New("screenfx: provider does not expose hal.Device and hal.Queue")
)
