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
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/m-varma-group/qrgate/entities"
	"github.com/m-varma-group/qrgate/snapshot"
)

// MaxLabelLength caps the label rendered under a generated QR image.
const MaxLabelLength = 58

// PolicyPrototype is the partial-document form of Policy, used for
// inserts, updates and query filters.
type PolicyPrototype struct {
	entities.Prototype

	QrID        entities.Definable[string]               `bson:"qrId"`
	TargetURL   entities.Definable[string]               `bson:"targetUrl"`
	ItemID      entities.Definable[string]               `bson:"itemId"`
	IsContainer entities.Definable[bool]                 `bson:"isContainer"`
	Note        entities.Definable[string]               `bson:"note"`
	Password    entities.Definable[string]               `bson:"password"`
	Expiration  entities.Definable[int64]                `bson:"expiration"`
	Label       entities.Definable[string]               `bson:"label"`
	Snapshot    entities.Definable[[]snapshot.Entry]     `bson:"snapshot"`
	FlatURLs    entities.Definable[[]snapshot.FlatEntry] `bson:"flatUrls"`
	TotalItems  entities.Definable[int]                  `bson:"totalItems"`
	ShowOverlay entities.Definable[bool]                 `bson:"showOverlay"`
	CreatedAt   entities.Definable[int64]                `bson:"createdAt"`
	UpdatedAt   entities.Definable[int64]                `bson:"updatedAt"`
}

// Policy is the persisted access-control record for one shareable
// identifier. Expiration is unix milliseconds, zero meaning "never".
// A container policy carries the snapshot (and possibly the flat url
// list); a file policy carries only the direct target url.
type Policy struct {
	QrID        string               `bson:"qrId" json:"qrId"`
	TargetURL   string               `bson:"targetUrl" json:"targetUrl"`
	ItemID      string               `bson:"itemId" json:"itemId"`
	IsContainer bool                 `bson:"isContainer" json:"isContainer"`
	Note        string               `bson:"note" json:"note"`
	Password    string               `bson:"password" json:"-"`
	Expiration  int64                `bson:"expiration" json:"expiration"`
	Label       string               `bson:"label" json:"label"`
	Snapshot    []snapshot.Entry     `bson:"snapshot" json:"snapshot,omitempty"`
	FlatURLs    []snapshot.FlatEntry `bson:"flatUrls" json:"flatUrls,omitempty"`
	TotalItems  int                  `bson:"totalItems" json:"totalItems"`
	ShowOverlay bool                 `bson:"showOverlay" json:"showOverlay"`
	CreatedAt   int64                `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64                `bson:"updatedAt" json:"updatedAt"`
}

type PolicyEntity struct {
	Policy

	Id primitive.ObjectID `bson:"_id"`
}

func (p *Policy) ToPrototype(proto *PolicyPrototype) {
	proto.QrID.Set(p.QrID)
	proto.TargetURL.Set(p.TargetURL)
	proto.ItemID.Set(p.ItemID)
	proto.IsContainer.Set(p.IsContainer)
	proto.Note.Set(p.Note)
	proto.Password.Set(p.Password)
	proto.Expiration.Set(p.Expiration)
	proto.Label.Set(p.Label)
	proto.Snapshot.Set(p.Snapshot)
	proto.FlatURLs.Set(p.FlatURLs)
	proto.TotalItems.Set(p.TotalItems)
	proto.ShowOverlay.Set(p.ShowOverlay)
	proto.CreatedAt.Set(p.CreatedAt)
	proto.UpdatedAt.Set(p.UpdatedAt)
}

// AccessLogEntry records one successful resolution.
type AccessLogEntry struct {
	QrID      string `bson:"qrId" json:"qrId"`
	QrName    string `bson:"qrName" json:"qrName"`
	Name      string `bson:"name" json:"name"`
	IsFolder  bool   `bson:"isFolder" json:"isFolder"`
	Source    string `bson:"source" json:"source"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}
