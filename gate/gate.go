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

// Package gate enforces a policy between locating it and releasing its
// target. Verification happens entirely on this side; the stored
// secret never travels to the visitor.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/locator"
	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/policy"
	"github.com/m-varma-group/qrgate/snapshot"
	"github.com/m-varma-group/qrgate/tracing"
)

var Module = fx.Module("gate",
	fx.Provide(
		New,
	),
)

type State string

const (
	StateNotFound State = "notFound"
	StateExpired  State = "expired"
	StateGated    State = "gated"
	StateResolved State = "resolved"
)

// ErrPasswordMismatch is recoverable: the state stays gated and the
// visitor may retry without limit.
var ErrPasswordMismatch = errors.New("password mismatch")
var ErrNoteNotAcknowledged = errors.New("note must be acknowledged")

// ResolutionContext carries the facts established at resolution time.
// It is produced once and handed down instead of being re-derived.
type ResolutionContext struct {
	Source      policy.Source `json:"source"`
	ShowOverlay bool          `json:"showOverlay"`
}

// Resolution is the released target: either a direct link with its
// embeddable preview, or the container snapshot for offline browsing.
type Resolution struct {
	Context     ResolutionContext    `json:"context"`
	Label       string               `json:"label"`
	IsContainer bool                 `json:"isContainer"`
	TargetURL   string               `json:"targetUrl"`
	PreviewURL  string               `json:"previewUrl,omitempty"`
	Snapshot    []snapshot.Entry     `json:"snapshot,omitempty"`
	FlatURLs    []snapshot.FlatEntry `json:"flatUrls,omitempty"`
	TotalItems  int                  `json:"totalItems"`
}

// Status is the visitor-facing view of the state machine. Resolution
// is set only in the resolved state.
type Status struct {
	State            State       `json:"state"`
	RequiresPassword bool        `json:"requiresPassword,omitempty"`
	RequiresNote     bool        `json:"requiresNote,omitempty"`
	Note             string      `json:"note,omitempty"`
	Resolution       *Resolution `json:"resolution,omitempty"`
}

// PolicyStore is the lookup capability the gate needs.
type PolicyStore interface {
	Get(ctx context.Context, id string) (policy.Policy, policy.Source, error)
}

// AuditLog records resolutions best-effort.
type AuditLog interface {
	Record(ctx context.Context, entry policy.AccessLogEntry)
}

type Params struct {
	fx.In

	Store   *policy.Store
	Audit   *policy.Audit
	Logger  *logging.Logger
	Tracing *tracing.Tracing
}

type Result struct {
	fx.Out

	Gate *Gate
}

type Gate struct {
	log    *slog.Logger
	tracer trace.Tracer
	store  PolicyStore
	audit  AuditLog
}

func New(p Params) Result {
	return Result{
		Gate: &Gate{
			log:    p.Logger.GetLogger("gate"),
			tracer: p.Tracing.TracerProvider.Tracer("gate"),
			store:  p.Store,
			audit:  p.Audit,
		},
	}
}

// NewGate is for callers outside the fx graph, mainly tests.
func NewGate(store PolicyStore, audit AuditLog, logger *logging.Logger) *Gate {
	return &Gate{
		log:    logger.GetLogger("gate"),
		tracer: tracing.NewNoopTracing().TracerProvider.Tracer("gate"),
		store:  store,
		audit:  audit,
	}
}

// Resolve loads the policy for id and reports where the visitor
// stands. A policy with neither note nor password resolves immediately
// with zero interaction.
func (g *Gate) Resolve(ctx context.Context, id string, visitor string) (Status, error) {
	ctx, span := g.tracer.Start(ctx, "resolve")
	defer span.End()

	p, source, err := g.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			return Status{State: StateNotFound}, nil
		}
		return Status{}, err
	}

	if expired(&p) {
		return Status{State: StateExpired}, nil
	}

	if p.Note != "" || p.Password != "" {
		return Status{
			State:            StateGated,
			RequiresPassword: p.Password != "",
			RequiresNote:     p.Note != "",
			Note:             p.Note,
		}, nil
	}

	return g.release(ctx, &p, source, visitor), nil
}

// Unlock verifies the submitted password and note acknowledgement and
// releases the target on success. Expiration wins over everything,
// regardless of what the visitor submits.
func (g *Gate) Unlock(ctx context.Context, id string, password string, ackNote bool, visitor string) (Status, error) {
	ctx, span := g.tracer.Start(ctx, "unlock")
	defer span.End()

	p, source, err := g.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			return Status{State: StateNotFound}, nil
		}
		return Status{}, err
	}

	if expired(&p) {
		return Status{State: StateExpired}, nil
	}

	gated := Status{
		State:            StateGated,
		RequiresPassword: p.Password != "",
		RequiresNote:     p.Note != "",
		Note:             p.Note,
	}

	if p.Note != "" && !ackNote {
		return gated, ErrNoteNotAcknowledged
	}

	if p.Password != "" && password != p.Password {
		g.log.Debug("password mismatch", "qrId", id)
		return gated, ErrPasswordMismatch
	}

	return g.release(ctx, &p, source, visitor), nil
}

func (g *Gate) release(ctx context.Context, p *policy.Policy, source policy.Source, visitor string) Status {
	resolution := &Resolution{
		Context: ResolutionContext{
			Source:      source,
			ShowOverlay: p.ShowOverlay,
		},
		Label:       p.Label,
		IsContainer: p.IsContainer,
		TargetURL:   p.TargetURL,
		TotalItems:  p.TotalItems,
	}

	if p.IsContainer {
		resolution.Snapshot = p.Snapshot
		resolution.FlatURLs = p.FlatURLs
	} else {
		resolution.PreviewURL = locator.Classify(p.TargetURL).PreviewURL
	}

	g.audit.Record(ctx, policy.AccessLogEntry{
		QrID:      p.QrID,
		QrName:    p.Label,
		Name:      visitor,
		IsFolder:  p.IsContainer,
		Source:    string(source),
		Timestamp: time.Now().UnixMilli(),
	})

	g.log.Info("resolved", "qrId", p.QrID, "source", source, "isContainer", p.IsContainer)

	return Status{
		State:      StateResolved,
		Resolution: resolution,
	}
}

func expired(p *policy.Policy) bool {
	return p.Expiration > 0 && p.Expiration <= time.Now().UnixMilli()
}

// ShareURL is the wire-level contract for shareable links.
func ShareURL(origin string, id string) string {
	return origin + "/qr/" + id
}
