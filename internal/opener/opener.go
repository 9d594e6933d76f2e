// Package opener opens documents in the operating system's default viewer.
package opener

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Resolver maps a document name to its path on disk.
type Resolver interface {
	Path(name string) (string, error)
}

// Runner starts an external command without waiting for it.
type Runner func(name string, args ...string) error

// Opener launches the platform file handler for documents.
type Opener struct {
	resolver Resolver
	goos     string
	run      Runner
}

// Option configures an Opener.
type Option func(*Opener)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(o *Opener) {
		if r != nil {
			o.run = r
		}
	}
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) Option {
	return func(o *Opener) {
		o.goos = goos
	}
}

// New creates an Opener resolving names through resolver.
func New(resolver Resolver, opts ...Option) *Opener {
	o := &Opener{resolver: resolver, goos: runtime.GOOS, run: startCommand}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open opens the named document.
func (o *Opener) Open(name string) error {
	path, err := o.resolver.Path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	cmd, args, err := command(o.goos, path)
	if err != nil {
		return err
	}
	if err := o.run(cmd, args...); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	return nil
}

func command(goos, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{path}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}
