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

package gate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/gateway"
	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/policy"
	"github.com/m-varma-group/qrgate/qrimg"
)

var HandlerModule = fx.Module("gate-handler",
	fx.Provide(
		NewHandler,
	),
)

type HandlerParams struct {
	fx.In

	Gate   *Gate
	Store  *policy.Store
	Viper  *viper.Viper
	Logger *logging.Logger
}

type HandlerResult struct {
	fx.Out

	Handler gateway.Handler `group:"handlers"`
}

type handler struct {
	log   *slog.Logger
	gate  *Gate
	store *policy.Store
	viper *viper.Viper
}

func NewHandler(p HandlerParams) HandlerResult {
	return HandlerResult{
		Handler: &handler{
			log:   p.Logger.GetLogger("gate-handler"),
			gate:  p.Gate,
			store: p.Store,
			viper: p.Viper,
		},
	}
}

func (h *handler) Setup(engine *gin.Engine, qrGroup *gin.RouterGroup) {
	qrGroup.GET("/:id", h.resolve)
	qrGroup.POST("/:id/unlock", h.unlock)
	qrGroup.GET("/:id/image", h.image)
}

type unlockRequest struct {
	Password        string `json:"password"`
	AcknowledgeNote bool   `json:"acknowledgeNote"`
	Name            string `json:"name"`
}

func (h *handler) resolve(c *gin.Context) {
	id := c.Param("id")

	status, err := h.gate.Resolve(c.Request.Context(), id, c.Query("name"))
	if err != nil {
		h.log.Error("while resolving "+id, "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(statusCode(status.State), status)
}

func (h *handler) unlock(c *gin.Context) {
	id := c.Param("id")

	var req unlockRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	status, err := h.gate.Unlock(c.Request.Context(), id, req.Password, req.AcknowledgeNote, req.Name)
	if err != nil {
		if errors.Is(err, ErrNoteNotAcknowledged) {
			c.JSON(http.StatusBadRequest, status)
			return
		}
		if errors.Is(err, ErrPasswordMismatch) {
			c.JSON(http.StatusForbidden, status)
			return
		}
		h.log.Error("while unlocking "+id, "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(statusCode(status.State), status)
}

func (h *handler) image(c *gin.Context) {
	id := c.Param("id")

	p, _, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		h.log.Error("while loading policy "+id, "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	url := ShareURL(h.viper.GetString("gateway.publicUrl"), id)
	data, err := qrimg.Render(url, p.Label)
	if err != nil {
		h.log.Error("while rendering image for "+id, "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

func statusCode(state State) int {
	switch state {
	case StateNotFound:
		return http.StatusNotFound
	case StateExpired:
		return http.StatusGone
	default:
		return http.StatusOK
	}
}
