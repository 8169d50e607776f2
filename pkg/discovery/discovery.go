// SPDX-License-Identifier: Apache-2.0

// Package discovery defines the one-operation boundary user-provided
// samizdat definitions cross to reach the core (spec.md §6.3). The core
// never reaches into a discovery adapter's internals; it only ever calls
// Discover.
package discovery

import "github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"

// Discoverer yields the full, immutable set of declared samizdats for one
// run. Implementations load definitions once; the result is treated as a
// snapshot for the whole command (spec.md §5).
type Discoverer interface {
	Discover() ([]*samizdat.Samizdat, error)
}
