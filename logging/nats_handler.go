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

package logging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const LogTopic = "qrgate.log"

// NatsHandler ships log records as JSON to the central log subject.
type NatsHandler struct {
	nc     *nats.Conn
	attrs  []slog.Attr
	groups []string
}

func NewNatsHandler(nc *nats.Conn) *NatsHandler {
	return &NatsHandler{
		nc,
		make([]slog.Attr, 0),
		make([]string, 0),
	}
}

// implements slog.Handler
var _ slog.Handler = &NatsHandler{}

func (h *NatsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *NatsHandler) Handle(ctx context.Context, r slog.Record) error {
	m := make(map[string]any)
	m["time"] = r.Time
	m["level"] = r.Level
	m["msg"] = r.Message

	recordAttrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})
	recordAttrs = append(recordAttrs, h.attrs...)

	makeGroup(h.groups, recordAttrs, m)

	j, err := json.Marshal(m)
	if err != nil {
		return err
	}

	h.nc.Publish(LogTopic, j)

	return nil
}

func (h *NatsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	copy := *h
	copy.attrs = append(clone(h.attrs), attrs...)
	return &copy
}

func (h *NatsHandler) WithGroup(name string) slog.Handler {
	copy := *h
	copy.groups = append(clone(h.groups), name)
	return &copy
}

func makeGroup(groups []string, attrs []slog.Attr, m map[string]any) {
	current := m
	for _, group := range groups {
		next, ok := current[group].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[group] = next
		}
		current = next
	}

	for _, attr := range attrs {
		key := attr.Key
		value := attr.Value.Resolve()

		if value.Kind() == slog.KindGroup {
			makeGroup([]string{key}, value.Group(), current)
		} else {
			val := value.Any()
			if e, ok := val.(error); ok {
				current[key] = e.Error()
			} else {
				current[key] = val
			}
		}
	}
}
