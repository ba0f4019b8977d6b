package registry

import (
	"context"
	"log"
	"os"
	"time"
)

const pollInterval = 100 * time.Millisecond

// Watch polls the modification times of the global file, application
// table and credentials directory every 100ms; any change triggers a
// full rebuild. Watch blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) {
	last := r.snapshotModTimes()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next := r.snapshotModTimes()
			if next != last {
				if err := r.Reload(); err != nil {
					log.Printf("registry: reload failed, keeping previous generation: %v", err)
				} else {
					last = next
				}
			}
		}
	}
}

type modTimes struct {
	global       time.Time
	applications time.Time
	credentials  time.Time
}

func (r *Registry) snapshotModTimes() modTimes {
	return modTimes{
		global:       modTime(r.sources.GlobalPath),
		applications: modTime(r.sources.ApplicationsPath),
		credentials:  dirModTime(r.sources.CredentialsDir),
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// dirModTime returns the latest modification time among the directory
// itself and its immediate entries, so a credential file rewritten
// in-place (same dir mtime semantics on some filesystems) is still
// observed.
func dirModTime(dir string) time.Time {
	latest := modTime(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return latest
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}
