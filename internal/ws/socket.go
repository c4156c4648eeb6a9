package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/worstcase/internal/config"
	"github.com/kiliankoe/worstcase/internal/game"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const namespace = "/"

type ConnCtx struct {
	RoomID   string
	PlayerID string
	limiter  *rate.Limiter
}

type emitter interface {
	Emit(event string, v ...interface{})
}

type broadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

// Server is the Socket.IO gateway. It turns socket events into registry calls
// and delivers the notifications they produce.
type Server struct {
	RM  *game.RoomManager
	io  *socketio.Server
	cfg config.Config

	rooms broadcaster

	mu    sync.RWMutex
	conns map[string]emitter // playerID -> socket

	exportMu sync.Mutex
}

func New(rm *game.RoomManager, cfg config.Config) *Server {
	io := socketio.NewServer(nil)
	srv := newServer(rm, cfg, io)
	srv.io = io
	srv.routes(io)
	return srv
}

func newServer(rm *game.RoomManager, cfg config.Config, rooms broadcaster) *Server {
	srv := &Server{RM: rm, cfg: cfg, rooms: rooms, conns: make(map[string]emitter)}
	rm.SetDispatcher(srv)
	return srv
}

type createRoomReq struct {
	Name string `json:"name"`
}

type joinRoomReq struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type rankingReq struct {
	Ranking []int `json:"ranking"`
}

type guessReq struct {
	Guess []int `json:"guess"`
}

type revealReq struct {
	CardIndex int `json:"cardIndex"`
}

func (srv *Server) routes(io *socketio.Server) {
	io.OnConnect(namespace, func(s socketio.Conn) error {
		srv.connCtx(s)
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent(namespace, "createRoom", srv.onCreateRoom)
	io.OnEvent(namespace, "joinRoom", srv.onJoinRoom)
	io.OnEvent(namespace, "startGame", srv.onStartGame)
	io.OnEvent(namespace, "spinWheel", srv.onSpin)
	io.OnEvent(namespace, "victimRanking", srv.onRanking)
	io.OnEvent(namespace, "placeGuess", srv.onGuess)
	io.OnEvent(namespace, "revealCard", srv.onReveal)
	io.OnEvent(namespace, "leaveRoom", srv.onLeaveRoom)

	io.OnError(namespace, func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect(namespace, func(s socketio.Conn, reason string) {
		srv.leave(s)
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})
}

// Mount attaches the Socket.IO server to the given Gin engine and starts it.
func (srv *Server) Mount(r *gin.Engine) {
	go func() {
		if err := srv.io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(srv.io))
	r.POST("/socket.io/*any", gin.WrapH(srv.io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})
}

func (srv *Server) Close() error {
	if srv.io == nil {
		return nil
	}
	return srv.io.Close()
}

func (srv *Server) onCreateRoom(s socketio.Conn, req createRoomReq) map[string]any {
	if err := srv.allow(s); err != nil {
		return srv.err(s, err)
	}
	srv.leave(s)
	sess, p, notes := srv.RM.CreateRoom(req.Name)
	srv.enter(s, sess.ID, p.ID)
	log.Info().Str("sid", s.ID()).Str("room", sess.ID).Str("player", p.ID).Msg("createRoom")
	srv.Dispatch(notes)
	return map[string]any{"roomId": sess.ID, "playerId": p.ID, "room": sess.Snapshot()}
}

func (srv *Server) onJoinRoom(s socketio.Conn, req joinRoomReq) map[string]any {
	if err := srv.allow(s); err != nil {
		return srv.err(s, err)
	}
	// a rejected join keeps the caller in its current room
	p, snap, notes, err := srv.RM.JoinRoom(req.RoomID, req.Name)
	if err != nil {
		return srv.err(s, err)
	}
	srv.leave(s)
	srv.enter(s, req.RoomID, p.ID)
	log.Info().Str("sid", s.ID()).Str("room", req.RoomID).Str("player", p.ID).Msg("joinRoom")
	srv.Dispatch(notes)
	return map[string]any{"roomId": req.RoomID, "playerId": p.ID, "room": snap}
}

func (srv *Server) onStartGame(s socketio.Conn) map[string]any {
	return srv.act(s, "startGame", func(room, player string) ([]game.Notification, error) {
		return srv.RM.StartSession(room, player)
	})
}

func (srv *Server) onSpin(s socketio.Conn) map[string]any {
	return srv.act(s, "spinWheel", func(room, player string) ([]game.Notification, error) {
		return srv.RM.Spin(room, player)
	})
}

func (srv *Server) onRanking(s socketio.Conn, req rankingReq) map[string]any {
	return srv.act(s, "victimRanking", func(room, player string) ([]game.Notification, error) {
		return srv.RM.SubmitRanking(room, player, req.Ranking)
	})
}

func (srv *Server) onGuess(s socketio.Conn, req guessReq) map[string]any {
	return srv.act(s, "placeGuess", func(room, player string) ([]game.Notification, error) {
		return srv.RM.SubmitGuess(room, player, req.Guess)
	})
}

func (srv *Server) onReveal(s socketio.Conn, req revealReq) map[string]any {
	return srv.act(s, "revealCard", func(room, player string) ([]game.Notification, error) {
		return srv.RM.RevealCard(room, player, req.CardIndex)
	})
}

func (srv *Server) onLeaveRoom(s socketio.Conn) map[string]any {
	srv.leave(s)
	return map[string]any{"ok": true}
}

// act runs an in-round action for the player bound to the socket.
func (srv *Server) act(s socketio.Conn, event string, fn func(room, player string) ([]game.Notification, error)) map[string]any {
	if err := srv.allow(s); err != nil {
		return srv.err(s, err)
	}
	ctx := srv.connCtx(s)
	if ctx.RoomID == "" {
		return srv.err(s, errNotInRoom)
	}
	notes, err := fn(ctx.RoomID, ctx.PlayerID)
	if err != nil {
		log.Debug().Str("sid", s.ID()).Str("room", ctx.RoomID).Str("event", event).Err(err).Msg("action rejected")
		return srv.err(s, err)
	}
	log.Info().Str("sid", s.ID()).Str("room", ctx.RoomID).Str("player", ctx.PlayerID).Msg(event)
	srv.Dispatch(notes)
	return map[string]any{"ok": true}
}

// Dispatch delivers notifications to socket.io rooms or single players.
func (srv *Server) Dispatch(notes []game.Notification) {
	for _, n := range notes {
		if n.Broadcast() {
			srv.rooms.BroadcastToRoom(namespace, n.RoomID, n.Event, n.Payload)
		} else {
			srv.mu.RLock()
			c := srv.conns[n.PlayerID]
			srv.mu.RUnlock()
			if c == nil {
				log.Debug().Str("room", n.RoomID).Str("player", n.PlayerID).Str("event", n.Event).Msg("recipient gone")
				continue
			}
			c.Emit(n.Event, n.Payload)
		}
		if n.Event == game.EventRoundScored {
			srv.export(n)
		}
	}
}

func (srv *Server) export(n game.Notification) {
	if !srv.cfg.ExportEnabled {
		return
	}
	summary, ok := n.Payload.(game.RoundSummary)
	if !ok {
		return
	}
	srv.exportMu.Lock()
	defer srv.exportMu.Unlock()
	if err := game.ExportRound(srv.cfg.ExportFile, n.RoomID, summary, time.Now()); err != nil {
		log.Error().Err(err).Str("room", n.RoomID).Msg("failed to export round")
		return
	}
	log.Info().Str("room", n.RoomID).Int("round", summary.Round).Str("file", srv.cfg.ExportFile).Msg("exported round")
}

func (srv *Server) enter(s socketio.Conn, room, player string) {
	ctx := srv.connCtx(s)
	ctx.RoomID = room
	ctx.PlayerID = player
	s.Join(room)
	srv.mu.Lock()
	srv.conns[player] = s
	srv.mu.Unlock()
}

// leave removes the socket's player from its room, if any.
func (srv *Server) leave(s socketio.Conn) {
	ctx, ok := s.Context().(*ConnCtx)
	if !ok || ctx.RoomID == "" {
		return
	}
	room, player := ctx.RoomID, ctx.PlayerID
	ctx.RoomID, ctx.PlayerID = "", ""
	s.Leave(room)
	srv.mu.Lock()
	delete(srv.conns, player)
	srv.mu.Unlock()

	notes, err := srv.RM.Leave(room, player)
	if err != nil {
		log.Debug().Str("room", room).Str("player", player).Err(err).Msg("leave")
		return
	}
	log.Info().Str("sid", s.ID()).Str("room", room).Str("player", player).Msg("left room")
	srv.Dispatch(notes)
}

func (srv *Server) connCtx(s socketio.Conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok {
		return ctx
	}
	ctx := &ConnCtx{}
	if srv.cfg.RateLimit > 0 {
		burst := max(srv.cfg.RateBurst, 1)
		ctx.limiter = rate.NewLimiter(rate.Limit(srv.cfg.RateLimit), burst)
	}
	s.SetContext(ctx)
	return ctx
}

func (srv *Server) allow(s socketio.Conn) error {
	ctx := srv.connCtx(s)
	if ctx.limiter != nil && !ctx.limiter.Allow() {
		return errRateLimited
	}
	return nil
}

func (srv *Server) err(s socketio.Conn, err error) map[string]any {
	s.Emit("error", map[string]any{"code": errorCode(err), "message": err.Error()})
	return map[string]any{"error": err.Error()}
}
