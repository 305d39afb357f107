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

// Package operator exposes the management API: creating, updating,
// refreshing and deleting policies, uploading files into a container,
// plus the access log views.
package operator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/entities"
	"github.com/m-varma-group/qrgate/gate"
	"github.com/m-varma-group/qrgate/gateway"
	"github.com/m-varma-group/qrgate/locator"
	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/policy"
	"github.com/m-varma-group/qrgate/snapshot"
	"github.com/m-varma-group/qrgate/storage"
	"github.com/m-varma-group/qrgate/uploader"
)

var Module = fx.Module("operator",
	fx.Provide(
		NewHandler,
	),
)

type Params struct {
	fx.In

	Store   *policy.Store
	Audit   *policy.Audit
	Builder *snapshot.Builder
	Client  storage.Client
	Viper   *viper.Viper
	Logger  *logging.Logger
}

type Result struct {
	fx.Out

	Handler gateway.Handler `group:"handlers"`
}

type handler struct {
	log     *slog.Logger
	logger  *logging.Logger
	store   *policy.Store
	audit   *policy.Audit
	builder *snapshot.Builder
	storage storage.Client
	viper   *viper.Viper
}

func NewHandler(p Params) Result {
	return Result{
		Handler: &handler{
			log:     p.Logger.GetLogger("operator"),
			logger:  p.Logger,
			store:   p.Store,
			audit:   p.Audit,
			builder: p.Builder,
			storage: p.Client,
			viper:   p.Viper,
		},
	}
}

func (h *handler) Setup(engine *gin.Engine, qrGroup *gin.RouterGroup) {
	api := engine.Group("/api")

	api.POST("/codes", h.create)
	api.GET("/codes/:id", h.get)
	api.PATCH("/codes/:id", h.update)
	api.POST("/codes/:id/refresh", h.refresh)
	api.DELETE("/codes/:id", h.delete)
	api.POST("/uploads/:containerId", h.upload)
	api.GET("/logs/:source", h.logs)
	api.GET("/logs/:source/csv", h.logsCsv)
}

type createRequest struct {
	Source      string `json:"source"`
	TargetURL   string `json:"targetUrl"`
	Note        string `json:"note"`
	Password    string `json:"password"`
	Expiration  int64  `json:"expiration"`
	Label       string `json:"label"`
	ShowOverlay *bool  `json:"showOverlay"`
	Flat        bool   `json:"flat"`
}

type createResponse struct {
	QrID     string `json:"qrId"`
	ShareURL string `json:"shareUrl"`
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	source, err := parseSource(req.Source)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proto := entities.MakePrototype(&policy.PolicyPrototype{})
	proto.TargetURL.Set(req.TargetURL)
	proto.Note.Set(req.Note)
	proto.Password.Set(req.Password)
	proto.Expiration.Set(req.Expiration)
	proto.Label.Set(req.Label)
	if req.ShowOverlay != nil {
		proto.ShowOverlay.Set(*req.ShowOverlay)
	}

	classification := locator.Classify(req.TargetURL)
	proto.ItemID.Set(classification.ItemID)
	proto.IsContainer.Set(classification.Kind == locator.KindContainer)

	ctx := c.Request.Context()

	if classification.Kind == locator.KindContainer {
		entries, err := h.builder.Build(ctx, classification.ItemID)
		if err != nil {
			h.log.Error("while building snapshot", "error", err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to load contents"})
			return
		}
		proto.Snapshot.Set(entries)

		if req.Flat {
			flat, err := h.builder.BuildFlat(ctx, classification.ItemID)
			if err != nil {
				h.log.Error("while building flat snapshot", "error", err)
				c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to load contents"})
				return
			}
			proto.FlatURLs.Set(flat)
		}
	}

	id, err := h.store.Create(ctx, source, proto)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, createResponse{
		QrID:     id,
		ShareURL: gate.ShareURL(h.viper.GetString("gateway.publicUrl"), id),
	})
}

func (h *handler) get(c *gin.Context) {
	p, source, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		h.log.Error("while loading policy", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy": p, "source": source})
}

func (h *handler) update(c *gin.Context) {
	proto := entities.MakePrototype(&policy.PolicyPrototype{})
	if err := c.BindJSON(proto); err != nil {
		return
	}

	err := h.store.Update(c.Request.Context(), c.Param("id"), proto)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) refresh(c *gin.Context) {
	p, err := h.store.RefreshSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		if errors.Is(err, policy.ErrNotContainer) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("while refreshing snapshot", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to load contents"})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *handler) delete(c *gin.Context) {
	id := c.Param("id")

	err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		h.log.Error("while deleting policy", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	// log entries of a deleted code are gone with it
	if err := h.audit.DeleteFor(c.Request.Context(), id); err != nil {
		h.log.Error("while deleting access log entries", "qrId", id, "error", err)
	}

	c.Status(http.StatusNoContent)
}

type uploadResult struct {
	Name   string `json:"name"`
	ItemID string `json:"itemId,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no files"})
		return
	}

	queue := uploader.NewQueue(h.storage, c.Param("containerId"), h.logger)

	// keep the form parts open until the queue has drained them
	var opened []io.ReadCloser
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opened = append(opened, f)
		queue.Add(fh.Filename, f, nil)
	}

	results := queue.Run(c.Request.Context())

	response := make([]uploadResult, 0, len(results))
	failed := 0
	for _, r := range results {
		entry := uploadResult{Name: r.Name, ItemID: r.ItemID}
		if r.Err != nil {
			entry.Error = r.Err.Error()
			failed++
		}
		response = append(response, entry)
	}

	status := http.StatusOK
	if failed == len(results) {
		status = http.StatusBadGateway
	}
	c.JSON(status, response)
}

func (h *handler) logs(c *gin.Context) {
	source, err := parseSource(c.Param("source"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	entries, err := h.audit.List(c.Request.Context(), source, limit)
	if err != nil {
		h.log.Error("while listing access log", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *handler) logsCsv(c *gin.Context) {
	source, err := parseSource(c.Param("source"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.audit.List(c.Request.Context(), source, 0)
	if err != nil {
		h.log.Error("while listing access log", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=access-log-"+string(source)+".csv")
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	if err := policy.WriteCSV(c.Writer, entries); err != nil {
		h.log.Error("while writing csv", "error", err)
	}
}

func parseSource(raw string) (policy.Source, error) {
	switch policy.Source(raw) {
	case policy.SourceCodes, policy.SourceTours:
		return policy.Source(raw), nil
	}
	return "", fmt.Errorf("unknown source %q", raw)
}
