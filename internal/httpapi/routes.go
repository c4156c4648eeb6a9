package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/worstcase/internal/config"
	"github.com/kiliankoe/worstcase/internal/game"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

type handlers struct {
	rm  *game.RoomManager
	cfg config.Config
}

// Register adds the REST endpoints. The room listing is only reachable with
// host credentials when HOST_USER and HOST_PASS are set.
func Register(r *gin.Engine, rm *game.RoomManager, cfg config.Config) {
	h := &handlers{rm: rm, cfg: cfg}

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/rooms/:code", h.room)
	api.GET("/rooms/:code/qr.png", h.qr)

	host := api.Group("/rooms")
	if cfg.HostUser != "" && cfg.HostPass != "" {
		host.Use(gin.BasicAuth(gin.Accounts{cfg.HostUser: cfg.HostPass}))
	}
	host.GET("", h.rooms)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": h.rm.Count()})
}

func (h *handlers) rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rm.Rooms()})
}

func (h *handlers) room(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": sess.Snapshot()})
}

func (h *handlers) qr(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	png, err := qrcode.Encode(joinURL(h.cfg.PublicURL, sess.ID), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", sess.ID).Msg("qr encode")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encode failed"})
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handlers) lookup(c *gin.Context) (*game.Session, bool) {
	code := strings.ToUpper(c.Param("code"))
	sess, err := h.rm.Get(code)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, game.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

func joinURL(base, code string) string {
	return strings.TrimRight(base, "/") + "/?room=" + url.QueryEscape(code)
}
