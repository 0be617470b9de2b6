package hypervisor

import (
	"fmt"
	"sync"
)

// Constructor builds a Driver for a named back-end. Concrete driver packages
// register themselves under a back-end name via Register.
type Constructor func() (Driver, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Constructor{}

	instanceMu   sync.Mutex
	instance     Driver
	instanceType string
)

// Register makes a driver constructor available to the factory under name.
// Driver packages call this from an init() func, mirroring the registration
// pattern used for Prometheus collectors elsewhere in this module.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Get returns the process-wide Driver instance, constructing it on first
// call via the registered constructor for backend. A second call naming a
// different backend fails: at most one driver back-end is active per
// process.
func Get(backend string) (Driver, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		if instanceType != backend {
			return nil, fmt.Errorf("hypervisor: a %s driver is already instantiated, cannot also instantiate %s", instanceType, backend)
		}
		return instance, nil
	}

	registryMu.Lock()
	ctor, ok := registry[backend]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("hypervisor: unknown backend %q", backend)
	}

	drv, err := ctor()
	if err != nil {
		return nil, err
	}
	instance = drv
	instanceType = backend
	return instance, nil
}

// Current returns the already-constructed process-wide driver, or an error
// if Get has not yet been called successfully.
func Current() (Driver, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		return nil, fmt.Errorf("hypervisor: not initialized")
	}
	return instance, nil
}

// resetForTest clears the process-wide instance. Test-only.
func resetForTest() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
	instanceType = ""
}
