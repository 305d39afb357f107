// Copyright © 2025 M Varma Group

// This file is part of Qrgate <https://github.com/m-varma-group/qrgate>.

// Qrgate is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License
// as published by the Free Software Foundation,
// either version 3 of the License, or (at your option)
// any later version.

// Qrgate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with Qrgate.  If not, see <http://www.gnu.org/licenses/>.

// Package navigator walks a resolved snapshot in memory. It never
// touches storage: everything it shows was captured when the snapshot
// was built.
package navigator

import (
	"github.com/m-varma-group/qrgate/snapshot"
)

type frame struct {
	name    string
	entries []snapshot.Entry
}

// Navigator tracks the visitor's position inside a snapshot tree as a
// stack of opened containers. The zero depth is the snapshot root.
type Navigator struct {
	rootLabel string
	root      []snapshot.Entry
	stack     []frame
}

func New(rootLabel string, root []snapshot.Entry) *Navigator {
	return &Navigator{
		rootLabel: rootLabel,
		root:      root,
	}
}

// Current lists the entries of the container the visitor is looking at.
func (n *Navigator) Current() []snapshot.Entry {
	if len(n.stack) == 0 {
		return n.root
	}
	return n.stack[len(n.stack)-1].entries
}

// Open descends into a container entry. Opening a file is a no-op:
// files are followed through their Link, not through the navigator.
// Returns whether the position changed.
func (n *Navigator) Open(entry snapshot.Entry) bool {
	if entry.Kind != snapshot.KindContainer {
		return false
	}
	n.stack = append(n.stack, frame{name: entry.Name, entries: entry.Children})
	return true
}

// Back pops one level. At the root it stays put.
func (n *Navigator) Back() bool {
	if len(n.stack) == 0 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

// AtRoot reports whether the visitor is at the snapshot root.
func (n *Navigator) AtRoot() bool {
	return len(n.stack) == 0
}

// Breadcrumbs returns the path from the root label down to the current
// container, one name per level.
func (n *Navigator) Breadcrumbs() []string {
	crumbs := make([]string, 0, len(n.stack)+1)
	crumbs = append(crumbs, n.rootLabel)
	for _, f := range n.stack {
		crumbs = append(crumbs, f.name)
	}
	return crumbs
}
