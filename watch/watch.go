//go:build linux

// Package watch follows the comings and goings of named network
// namespaces under a bind-mount directory (iproute2's /run/netns) and
// reports each one, optionally along with its interfaces.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/rjeczalik/notify"

	"github.com/kelpdock/nsnet/ifaddrs"
)

type EventType int

const (
	// Added: a namespace bind mount appeared.
	Added EventType = iota

	// Removed: a namespace bind mount went away.
	Removed
)

func (t EventType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Event is one observed namespace change. Interfaces is populated only
// for Added events when enumeration is enabled and the namespace could
// be resolved; a namespace that vanished again before we got to it
// simply ships without.
type Event struct {
	Type EventType
	Name string
	Path string

	Interfaces []*ifaddrs.Interface
}

type Watcher struct {
	conf Config
}

func New(conf *Config) *Watcher {
	return &Watcher{conf: *conf}
}

func (w *Watcher) String() string {
	return "netns watcher"
}

// Run pushes namespace events into out until done closes. The output
// channel is closed on the way out so consumers can range over it.
func (w *Watcher) Run(done <-chan struct{}, out chan<- Event) {
	slog.Debug("running the netns watcher", "dir", w.conf.Dir)
	defer close(out)

	// A buffered channel guarantees that we don't loose events even
	// if mounts take place at the exact same time
	c := make(chan notify.EventInfo, w.conf.Backlog)

	if err := notify.Watch(w.conf.Dir, c, notify.Create, notify.Remove); err != nil {
		slog.Error("couldn't watch the netns directory", "dir", w.conf.Dir, "err", err)
		return
	}
	defer notify.Stop(c)

	for {
		select {
		case e := <-c:
			ev := Event{
				Name: filepath.Base(e.Path()),
				Path: e.Path(),
			}

			switch e.Event() {
			case notify.Create:
				ev.Type = Added
				if w.conf.Enumerate {
					ifaces, err := ifaddrs.EnumerateNamespace(e.Path())
					if err != nil {
						slog.Warn("couldn't enumerate the new namespace", "path", e.Path(), "err", err)
					} else {
						ev.Interfaces = ifaces
					}
				}
			case notify.Remove:
				ev.Type = Removed
			default:
				continue
			}

			out <- ev
		case <-done:
			slog.Debug("cleanly exiting the netns watcher")
			return
		}
	}
}
