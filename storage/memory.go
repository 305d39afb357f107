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

package storage

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RootID is the container id of a MemoryBackend's root.
const RootID = "root"

// MemoryBackend is an in-memory Backend for tests and local
// development. List failures can be injected per container to exercise
// partial-failure paths.
type MemoryBackend struct {
	mu       sync.Mutex
	items    map[string]*memoryItem
	listErrs map[string]error
}

type memoryItem struct {
	info     ItemInfo
	parent   string
	data     []byte
	children []string
}

func NewMemoryBackend() *MemoryBackend {
	b := &MemoryBackend{
		items:    make(map[string]*memoryItem),
		listErrs: make(map[string]error),
	}
	b.items[RootID] = &memoryItem{
		info: ItemInfo{
			ID:          RootID,
			Name:        "root",
			IsContainer: true,
		},
	}
	return b
}

// AddFile inserts a file without going through the upload protocol.
func (b *MemoryBackend) AddFile(parentID string, name string, data []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.items[id] = &memoryItem{
		info: ItemInfo{
			ID:      id,
			Name:    name,
			Size:    int64(len(data)),
			ModTime: time.Now().Unix(),
		},
		parent: parentID,
		data:   data,
	}
	b.items[parentID].children = append(b.items[parentID].children, id)
	return id
}

// FailList makes List return err for the given container.
func (b *MemoryBackend) FailList(containerID string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErrs[containerID] = err
}

func (b *MemoryBackend) List(containerID string) ([]ItemInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.listErrs[containerID]; err != nil {
		return nil, err
	}

	item, ok := b.items[containerID]
	if !ok {
		return nil, errors.New("no such item: " + containerID)
	}
	if !item.info.IsContainer {
		return nil, errors.New("not a container: " + containerID)
	}

	ret := make([]ItemInfo, 0, len(item.children))
	for _, childId := range item.children {
		ret = append(ret, b.items[childId].info)
	}
	return ret, nil
}

func (b *MemoryBackend) Stat(itemID string) (ItemInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[itemID]
	if !ok {
		return ItemInfo{}, errors.New("no such item: " + itemID)
	}
	return item.info, nil
}

func (b *MemoryBackend) CreateContainer(parentID string, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	parent, ok := b.items[parentID]
	if !ok || !parent.info.IsContainer {
		return "", errors.New("no such container: " + parentID)
	}

	id := uuid.NewString()
	b.items[id] = &memoryItem{
		info: ItemInfo{
			ID:          id,
			Name:        name,
			IsContainer: true,
			ModTime:     time.Now().Unix(),
		},
		parent: parentID,
	}
	parent.children = append(parent.children, id)
	return id, nil
}

func (b *MemoryBackend) Delete(itemID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[itemID]
	if !ok {
		return errors.New("no such item: " + itemID)
	}

	if parent, ok := b.items[item.parent]; ok {
		children := make([]string, 0, len(parent.children))
		for _, childId := range parent.children {
			if childId != itemID {
				children = append(children, childId)
			}
		}
		parent.children = children
	}
	delete(b.items, itemID)
	return nil
}

func (b *MemoryBackend) OpenUpload(containerID string, name string) (Upload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[containerID]
	if !ok || !item.info.IsContainer {
		return nil, errors.New("no such container: " + containerID)
	}

	return &memoryUpload{
		backend:     b,
		containerID: containerID,
		name:        name,
	}, nil
}

type memoryUpload struct {
	backend     *MemoryBackend
	containerID string
	name        string
	buf         bytes.Buffer
	done        bool
}

func (u *memoryUpload) Write(p []byte) (int, error) {
	if u.done {
		return 0, errors.New("upload already closed")
	}
	return u.buf.Write(p)
}

func (u *memoryUpload) Commit() (string, error) {
	if u.done {
		return "", errors.New("upload already closed")
	}
	u.done = true
	return u.backend.AddFile(u.containerID, u.name, u.buf.Bytes()), nil
}

func (u *memoryUpload) Abort() error {
	u.done = true
	u.buf.Reset()
	return nil
}
