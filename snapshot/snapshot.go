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

// Package snapshot materializes point-in-time copies of container
// trees from the storage provider, so a shared link can serve a whole
// folder without further authenticated calls.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/locator"
	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/storage"
	"github.com/m-varma-group/qrgate/tracing"
)

var Module = fx.Module("snapshot",
	fx.Provide(
		New,
	),
)

// DefaultMaxDepth bounds recursion into nested containers. Deeper
// levels are truncated silently with empty children.
const DefaultMaxDepth = 5

// FetchErrorMessage is recorded on a node when recursion into it fails.
const FetchErrorMessage = "Failed to fetch nested contents"

type Kind string

const (
	KindFile      Kind = "file"
	KindContainer Kind = "container"
)

// Entry is one node of a snapshot. Containers always carry a non-nil
// Children slice, even when serialized: an empty slice means "known
// empty" (or truncated at max depth) and must survive round-trips.
// Files carry a null. FetchError marks a container whose contents
// could not be fetched; its siblings are unaffected.
type Entry struct {
	ID         string  `bson:"id" json:"id"`
	Name       string  `bson:"name" json:"name"`
	Kind       Kind    `bson:"kind" json:"kind"`
	Link       string  `bson:"link" json:"link"`
	Depth      int     `bson:"depth" json:"depth"`
	Children   []Entry `bson:"children" json:"children"`
	FetchError string  `bson:"fetchError,omitempty" json:"fetchError,omitempty"`
}

// FlatEntry is one leaf file of a flattened snapshot.
type FlatEntry struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
}

type Params struct {
	fx.In

	Viper   *viper.Viper
	Client  storage.Client
	Logger  *logging.Logger
	Tracing *tracing.Tracing
}

type Result struct {
	fx.Out

	Builder *Builder
}

type Builder struct {
	log      *slog.Logger
	tracer   trace.Tracer
	client   storage.Client
	maxDepth int
}

func New(p Params) Result {
	p.Viper.SetDefault("snapshot.maxDepth", DefaultMaxDepth)

	return Result{
		Builder: &Builder{
			log:      p.Logger.GetLogger("snapshot"),
			tracer:   p.Tracing.TracerProvider.Tracer("snapshot"),
			client:   p.Client,
			maxDepth: p.Viper.GetInt("snapshot.maxDepth"),
		},
	}
}

// NewBuilder is for callers outside the fx graph, mainly tests.
func NewBuilder(client storage.Client, maxDepth int, logger *logging.Logger) *Builder {
	return &Builder{
		log:      logger.GetLogger("snapshot"),
		tracer:   tracing.NewNoopTracing().TracerProvider.Tracer("snapshot"),
		client:   client,
		maxDepth: maxDepth,
	}
}

// Build walks the children of containerID and returns the nested tree.
// A failure on the top-level listing fails the whole build; a failure
// inside a nested container is captured on that node and traversal
// continues with its siblings.
func (b *Builder) Build(ctx context.Context, containerID string) ([]Entry, error) {
	ctx, span := b.tracer.Start(ctx, "buildSnapshot")
	defer span.End()

	items, err := b.client.ListChildren(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("while listing container %s: %w", containerID, err)
	}

	return b.buildEntries(ctx, items, 0), nil
}

func (b *Builder) buildEntries(ctx context.Context, items []storage.ItemInfo, depth int) []Entry {
	entries := make([]Entry, 0, len(items))

	for _, item := range items {
		entry := Entry{
			ID:    item.ID,
			Name:  item.Name,
			Depth: depth,
		}

		if item.IsContainer {
			entry.Kind = KindContainer
			entry.Link = locator.ContainerLink(item.ID)
			entry.Children = []Entry{}

			if depth < b.maxDepth {
				children, err := b.client.ListChildren(ctx, item.ID)
				if err != nil {
					b.log.Warn("failed to fetch container contents", "id", item.ID, "name", item.Name, "error", err)
					entry.FetchError = FetchErrorMessage
				} else {
					entry.Children = b.buildEntries(ctx, children, depth+1)
				}
			}
		} else {
			entry.Kind = KindFile
			entry.Link = locator.FileLink(item.ID)
		}

		entries = append(entries, entry)
	}

	return entries
}

// BuildFlat recurses without a depth limit and returns only the leaf
// files. Containers that fail to list are skipped, like the nested
// best-effort behavior of Build.
func (b *Builder) BuildFlat(ctx context.Context, containerID string) ([]FlatEntry, error) {
	ctx, span := b.tracer.Start(ctx, "buildFlatSnapshot")
	defer span.End()

	items, err := b.client.ListChildren(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("while listing container %s: %w", containerID, err)
	}

	ret := make([]FlatEntry, 0, len(items))
	b.collectFiles(ctx, items, &ret)
	return ret, nil
}

func (b *Builder) collectFiles(ctx context.Context, items []storage.ItemInfo, out *[]FlatEntry) {
	for _, item := range items {
		if item.IsContainer {
			children, err := b.client.ListChildren(ctx, item.ID)
			if err != nil {
				b.log.Warn("failed to fetch container contents", "id", item.ID, "name", item.Name, "error", err)
				continue
			}
			b.collectFiles(ctx, children, out)
		} else {
			*out = append(*out, FlatEntry{
				Name: item.Name,
				URL:  locator.FileLink(item.ID),
			})
		}
	}
}

// Count returns the number of nodes in the tree, containers included,
// across all depths.
func Count(entries []Entry) int {
	count := 0
	for _, entry := range entries {
		count++
		count += Count(entry.Children)
	}
	return count
}
