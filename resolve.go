package serialtty

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Resolve enumerates the devices visible through l and returns the one whose
// name equals opts.Name exactly. There is no fallback to a similar device.
func Resolve(l Lister, opts Options) (PortDescriptor, error) {
	ports, err := l.ListPorts()
	if err != nil {
		return PortDescriptor{}, &EnumerationError{Err: err}
	}

	for _, p := range ports {
		if p.Name == opts.Name {
			return p, nil
		}
	}
	return PortDescriptor{}, &DeviceNotFoundError{Name: opts.Name}
}

// WaitForDevice blocks until name is present in l's enumeration, re-checking
// whenever an entry is created in the device's directory. Logical names such
// as COM3 have no directory to watch: they are resolved once and, if absent,
// fail with ErrUnsupportedPlatform.
func WaitForDevice(ctx context.Context, l Lister, name string) (PortDescriptor, error) {
	if !filepath.IsAbs(name) {
		desc, err := Resolve(l, Options{Name: name})
		if errors.Is(err, ErrDeviceNotFound) {
			return PortDescriptor{}, fmt.Errorf("%w: cannot watch %s, not a device path", ErrUnsupportedPlatform, name)
		}
		return desc, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return PortDescriptor{}, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(name)); err != nil {
		return PortDescriptor{}, fmt.Errorf("failed to watch %s: %w", filepath.Dir(name), err)
	}

	opts := Options{Name: name}
	desc, err := Resolve(l, opts)
	if !errors.Is(err, ErrDeviceNotFound) {
		return desc, err
	}

	for {
		select {
		case <-ctx.Done():
			return PortDescriptor{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return PortDescriptor{}, &DeviceNotFoundError{Name: name}
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			desc, err := Resolve(l, opts)
			if errors.Is(err, ErrDeviceNotFound) {
				continue
			}
			return desc, err
		case err, ok := <-watcher.Errors:
			if !ok {
				return PortDescriptor{}, &DeviceNotFoundError{Name: name}
			}
			return PortDescriptor{}, fmt.Errorf("watch %s: %w", name, err)
		}
	}
}
