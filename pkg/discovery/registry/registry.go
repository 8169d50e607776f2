// SPDX-License-Identifier: Apache-2.0

// Package registry is the explicit, process-wide registration adapter for
// discovery (spec.md §6.3, §9): samizdats register themselves (typically
// from a package init()), and Discover returns a copy of the list, leaving
// it in place. No reflection, no class-hierarchy walk -- just an append-only
// slice guarded by a mutex.
package registry

import (
	"sync"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

var (
	mu         sync.Mutex
	registered []*samizdat.Samizdat
)

// Register adds sd to the process-wide registration list. Safe to call
// from concurrent package init()s.
func Register(sd *samizdat.Samizdat) {
	mu.Lock()
	defer mu.Unlock()
	registered = append(registered, sd)
}

// Reset clears the registration list. Exported for tests that need a clean
// slate between cases; production callers never need it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registered = nil
}

// Registry is a Discoverer over the process-wide registration list.
type Registry struct{}

// Discover returns every samizdat registered so far.
func (Registry) Discover() ([]*samizdat.Samizdat, error) {
	mu.Lock()
	defer mu.Unlock()
	out := make([]*samizdat.Samizdat, len(registered))
	copy(out, registered)
	return out, nil
}
