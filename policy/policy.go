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

// Package policy persists the access-control documents behind
// shareable identifiers, one collection per policy kind, looked up in
// a fixed priority order.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/entities"
	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/snapshot"
	"github.com/m-varma-group/qrgate/tracing"
)

var Module = fx.Module("policy",
	fx.Provide(
		New,
	),
)

// Source names the collection a policy was found in. The matched
// source travels with every resolution and decides downstream
// behavior such as overlay defaults.
type Source string

const (
	// SourceCodes holds drive file and folder shares.
	SourceCodes Source = "qrCodes"
	// SourceTours holds external 360-tour links.
	SourceTours Source = "qr360"
)

// lookup priority: first match wins
var sources = []Source{SourceCodes, SourceTours}

var ErrNotFound = errors.New("no policy found for identifier")
var ErrNotContainer = errors.New("policy does not reference a container")

const idLength = 8

// MintID returns a short collision-resistant identifier. Collisions
// are treated as negligible; there is no retry loop.
func MintID() (string, error) {
	return gonanoid.New(idLength)
}

type Params struct {
	fx.In

	Db      *mongo.Database
	Logger  *logging.Logger
	Tracing *tracing.Tracing
	Builder *snapshot.Builder
	Mig     Migrations
}

type Result struct {
	fx.Out

	Store *Store
}

type Store struct {
	log     *slog.Logger
	tracer  trace.Tracer
	db      *mongo.Database
	builder *snapshot.Builder
}

func New(p Params) (Result, error) {
	return Result{
		Store: &Store{
			log:     p.Logger.GetLogger("policy"),
			tracer:  p.Tracing.TracerProvider.Tracer("policy"),
			db:      p.Db,
			builder: p.Builder,
		},
	}, nil
}

func (s *Store) collection(source Source) *mongo.Collection {
	return s.db.Collection(string(source))
}

// Create mints an identifier and writes a new policy document into the
// given source collection. The caller never supplies qrId, createdAt
// or updatedAt; those are overwritten here.
func (s *Store) Create(ctx context.Context, source Source, proto *PolicyPrototype) (string, error) {
	ctx, span := s.tracer.Start(ctx, "createPolicy")
	defer span.End()

	if err := validate(proto); err != nil {
		return "", err
	}

	id, err := MintID()
	if err != nil {
		return "", fmt.Errorf("while minting identifier: %w", err)
	}

	now := time.Now().UnixMilli()
	proto.QrID.Set(id)
	proto.CreatedAt.Set(now)
	proto.UpdatedAt.Set(now)
	if !proto.ShowOverlay.IsDefined() {
		proto.ShowOverlay.Set(source == SourceTours)
	}
	if proto.IsContainer.Get() && proto.Snapshot.IsDefined() && !proto.TotalItems.IsDefined() {
		proto.TotalItems.Set(snapshot.Count(proto.Snapshot.Get()))
	}

	_, err = s.collection(source).InsertOne(ctx, proto)
	if err != nil {
		return "", fmt.Errorf("while creating policy: %w", err)
	}

	s.log.Info("policy created", "qrId", id, "source", source)

	return id, nil
}

func validate(proto *PolicyPrototype) error {
	if proto.Label.IsDefined() && len([]rune(proto.Label.Get())) > MaxLabelLength {
		return fmt.Errorf("label exceeds %d characters", MaxLabelLength)
	}
	if proto.IsContainer.IsDefined() && proto.IsContainer.Get() {
		if !proto.Snapshot.IsDefined() && !proto.FlatURLs.IsDefined() {
			return errors.New("container policy requires a snapshot")
		}
	} else {
		if !proto.TargetURL.IsDefined() || proto.TargetURL.Get() == "" {
			return errors.New("file policy requires a target url")
		}
	}
	return nil
}

// Get looks up id across all source collections in priority order and
// returns the first match together with the source it came from.
func (s *Store) Get(ctx context.Context, id string) (Policy, Source, error) {
	ctx, span := s.tracer.Start(ctx, "getPolicy")
	defer span.End()

	filter := entities.MakePrototype(&PolicyPrototype{})
	filter.QrID.Set(id)

	for _, source := range sources {
		result := s.collection(source).FindOne(ctx, filter)
		if result.Err() != nil {
			if errors.Is(result.Err(), mongo.ErrNoDocuments) {
				continue
			}
			return Policy{}, "", fmt.Errorf("while retrieving policy: %w", result.Err())
		}
		policy := Policy{}
		if err := result.Decode(&policy); err != nil {
			return Policy{}, "", fmt.Errorf("while decoding policy: %w", err)
		}
		return policy, source, nil
	}

	return Policy{}, "", ErrNotFound
}

// Update applies a partial update to the first collection containing
// id. The identifier and creation time are never touched, and the
// snapshot-derived fields change only through RefreshSnapshot, so a
// caller cannot flip isContainer or overwrite the snapshot here.
func (s *Store) Update(ctx context.Context, id string, proto *PolicyPrototype) error {
	ctx, span := s.tracer.Start(ctx, "updatePolicy")
	defer span.End()

	if proto.Label.IsDefined() && len([]rune(proto.Label.Get())) > MaxLabelLength {
		return fmt.Errorf("label exceeds %d characters", MaxLabelLength)
	}

	proto.QrID.Unset()
	proto.CreatedAt.Unset()
	proto.IsContainer.Unset()
	proto.Snapshot.Unset()
	proto.FlatURLs.Unset()
	proto.TotalItems.Unset()
	proto.UpdatedAt.Set(time.Now().UnixMilli())

	filter := entities.MakePrototype(&PolicyPrototype{})
	filter.QrID.Set(id)

	for _, source := range sources {
		result := s.collection(source).FindOneAndUpdate(ctx, filter, bson.M{"$set": proto})
		if result.Err() != nil {
			if errors.Is(result.Err(), mongo.ErrNoDocuments) {
				continue
			}
			return fmt.Errorf("while updating policy: %w", result.Err())
		}
		return nil
	}

	return ErrNotFound
}

// RefreshSnapshot re-runs the snapshot builder against the policy's
// container and overwrites snapshot, totalItems and updatedAt. The
// replacement is atomic from the caller's perspective; concurrent
// refreshes of the same id race and the last write wins.
func (s *Store) RefreshSnapshot(ctx context.Context, id string) (Policy, error) {
	ctx, span := s.tracer.Start(ctx, "refreshSnapshot")
	defer span.End()

	policy, source, err := s.Get(ctx, id)
	if err != nil {
		return Policy{}, err
	}
	if !policy.IsContainer {
		return Policy{}, ErrNotContainer
	}

	entries, err := s.builder.Build(ctx, policy.ItemID)
	if err != nil {
		return Policy{}, fmt.Errorf("while rebuilding snapshot: %w", err)
	}

	update := entities.MakePrototype(&PolicyPrototype{})
	update.Snapshot.Set(entries)
	update.TotalItems.Set(snapshot.Count(entries))
	update.UpdatedAt.Set(time.Now().UnixMilli())

	if len(policy.FlatURLs) > 0 {
		flat, err := s.builder.BuildFlat(ctx, policy.ItemID)
		if err != nil {
			return Policy{}, fmt.Errorf("while rebuilding flat snapshot: %w", err)
		}
		update.FlatURLs.Set(flat)
	}

	filter := entities.MakePrototype(&PolicyPrototype{})
	filter.QrID.Set(id)

	result := s.collection(source).FindOneAndUpdate(ctx, filter, bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if result.Err() != nil {
		return Policy{}, fmt.Errorf("while persisting refreshed snapshot: %w", result.Err())
	}

	updated := Policy{}
	if err := result.Decode(&updated); err != nil {
		return Policy{}, fmt.Errorf("while decoding refreshed policy: %w", err)
	}

	s.log.Info("snapshot refreshed", "qrId", id, "totalItems", updated.TotalItems)

	return updated, nil
}

// Delete removes the policy for id from whichever collection holds it.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "deletePolicy")
	defer span.End()

	filter := entities.MakePrototype(&PolicyPrototype{})
	filter.QrID.Set(id)

	for _, source := range sources {
		result := s.collection(source).FindOneAndDelete(ctx, filter)
		if result.Err() != nil {
			if errors.Is(result.Err(), mongo.ErrNoDocuments) {
				continue
			}
			return fmt.Errorf("while deleting policy: %w", result.Err())
		}
		return nil
	}

	return ErrNotFound
}
