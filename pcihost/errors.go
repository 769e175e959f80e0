package pcihost

import "errors"

var (
	// ErrBusNumberConflict indicates two bridges in one domain claim the
	// same root bus number, or that narrowing an overlap would evict a bus
	// already in use.
	ErrBusNumberConflict = errors.New("pcihost: bus number conflict")

	// ErrBusAttached indicates the bus number is already attached in its
	// domain's topology.
	ErrBusAttached = errors.New("pcihost: bus already attached")

	// ErrInvalidBusNumber indicates a requested first bus number outside
	// [0, MaxBusNumber].
	ErrInvalidBusNumber = errors.New("pcihost: invalid bus number")
)
