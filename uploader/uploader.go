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

// Package uploader runs multi-file uploads as a sequential queue: one
// file fully completes or fails before the next begins. Each file has
// its own cancellation and its own outcome; cancelling or failing one
// never touches the others.
package uploader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/storage"
)

// Task is one queued file. Cancel may be called at any time, before or
// during its upload.
type Task struct {
	name     string
	reader   io.Reader
	progress func(sent int64)

	ctx    context.Context
	cancel context.CancelFunc
}

func (t *Task) Cancel() {
	t.cancel()
}

// Result is the outcome for one task. Name is the final name after
// collision handling; ItemID is set only on success.
type Result struct {
	Name   string
	ItemID string
	Err    error
}

type Queue struct {
	log         *slog.Logger
	client      storage.Client
	containerID string
	tasks       []*Task
}

func NewQueue(client storage.Client, containerID string, logger *logging.Logger) *Queue {
	return &Queue{
		log:         logger.GetLogger("uploader"),
		client:      client,
		containerID: containerID,
	}
}

// Add queues a file. progress may be nil.
func (q *Queue) Add(name string, r io.Reader, progress func(sent int64)) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	task := &Task{
		name:     name,
		reader:   r,
		progress: progress,
		ctx:      ctx,
		cancel:   cancel,
	}
	q.tasks = append(q.tasks, task)
	return task
}

// Run uploads the queued files in order and returns one Result per
// task. Cancelling ctx cancels the running upload and fails the
// remaining tasks with ctx's error.
func (q *Queue) Run(ctx context.Context) []Result {
	taken := map[string]bool{}
	children, err := q.client.ListChildren(ctx, q.containerID)
	if err != nil {
		// collision checks degrade gracefully when the listing fails
		q.log.Warn("while listing container "+q.containerID, "error", err)
	}
	for _, child := range children {
		taken[child.Name] = true
	}

	results := make([]Result, 0, len(q.tasks))

	for _, task := range q.tasks {
		name := uniqueName(task.name, taken)
		taken[name] = true

		result := q.upload(ctx, task, name)
		if result.Err != nil {
			q.log.Warn("upload failed", "name", name, "error", result.Err)
		} else {
			q.log.Debug("upload complete", "name", name, "itemId", result.ItemID)
		}
		results = append(results, result)
	}

	q.tasks = nil
	return results
}

func (q *Queue) upload(ctx context.Context, task *Task, name string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Err: err}
	}
	if err := task.ctx.Err(); err != nil {
		return Result{Name: name, Err: err}
	}

	// a queue-level cancel also cancels the file in flight
	stop := context.AfterFunc(ctx, task.cancel)
	defer stop()

	itemID, err := q.client.Upload(task.ctx, q.containerID, name, task.reader, task.progress)
	if err != nil {
		return Result{Name: name, Err: err}
	}
	return Result{Name: name, ItemID: itemID}
}

// uniqueName disambiguates against names already present in the
// container and earlier names in the same batch: "report.pdf" becomes
// "report (1).pdf", then "report (2).pdf".
func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}
