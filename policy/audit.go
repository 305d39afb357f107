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

package policy

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/logging"
)

const accessLogCollection = "qrAccessLogs"

// DefaultListLimit caps audit listings for the operator view.
const DefaultListLimit = 500

type AuditParams struct {
	fx.In

	Db     *mongo.Database
	Logger *logging.Logger
	Mig    Migrations
}

type AuditResult struct {
	fx.Out

	Audit *Audit
}

// Audit records successful resolutions. Writes are best effort: a
// failed write is logged for the operator and otherwise swallowed, it
// never blocks or fails the resolution that triggered it.
type Audit struct {
	log  *slog.Logger
	logs *mongo.Collection
}

var AuditModule = fx.Module("audit",
	fx.Provide(
		NewAudit,
	),
)

func NewAudit(p AuditParams) AuditResult {
	return AuditResult{
		Audit: &Audit{
			log:  p.Logger.GetLogger("audit"),
			logs: p.Db.Collection(accessLogCollection),
		},
	}
}

func (a *Audit) Record(ctx context.Context, entry AccessLogEntry) {
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	_, err := a.logs.InsertOne(ctx, entry)
	if err != nil {
		a.log.Error("failed to write access log entry", "qrId", entry.QrID, "error", err)
	}
}

// List returns entries for one source, newest first, capped at limit.
func (a *Audit) List(ctx context.Context, source Source, limit int64) ([]AccessLogEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	cursor, err := a.logs.Find(ctx, bson.M{"source": string(source)},
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("while listing access log: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]AccessLogEntry, 0)
	for cursor.Next(ctx) {
		entry := AccessLogEntry{}
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("while decoding access log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if cursor.Err() != nil {
		return nil, fmt.Errorf("while listing access log: %w", cursor.Err())
	}

	return entries, nil
}

// DeleteFor removes all log entries of one identifier.
func (a *Audit) DeleteFor(ctx context.Context, qrID string) error {
	_, err := a.logs.DeleteMany(ctx, bson.M{"qrId": qrID})
	if err != nil {
		return fmt.Errorf("while deleting access log entries: %w", err)
	}
	return nil
}

// WriteCSV exports entries in the column order of the operator's log
// view.
func WriteCSV(w io.Writer, entries []AccessLogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"qrId", "qrName", "name", "isFolder", "source", "timestamp"}); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			entry.QrID,
			entry.QrName,
			entry.Name,
			strconv.FormatBool(entry.IsFolder),
			entry.Source,
			time.UnixMilli(entry.Timestamp).UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
