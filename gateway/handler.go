package gateway

import (
	"github.com/gin-gonic/gin"
)

// Handler is contributed to the "handlers" value group and gets its
// routes wired when the server starts. The qr group carries no-cache
// headers; resolution responses must never be cached.
type Handler interface {
	Setup(engine *gin.Engine, qrGroup *gin.RouterGroup)
}
