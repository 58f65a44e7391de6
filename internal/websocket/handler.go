package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"bizdash/internal/config"
	apierrors "bizdash/internal/errors"
	"bizdash/internal/infrastructure"
)

// Options configures the session endpoint.
type Options struct {
	Service        SessionService
	Hub            *Hub
	Config         config.WebSocketConfig
	MessageTimeout time.Duration
	AllowedOrigins []string
	ErrorHandler   *apierrors.ErrorHandler
	Metrics        *Metrics
	Logger         *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = infrastructure.GetLogger()
	}
	if o.ErrorHandler == nil {
		o.ErrorHandler = apierrors.NewErrorHandler(o.Logger, false)
	}
	if o.Config.PongWait <= 0 {
		o.Config.PongWait = config.WebSocketPongWait
	}
	if o.Config.PingPeriod <= 0 || o.Config.PingPeriod >= o.Config.PongWait {
		o.Config.PingPeriod = o.Config.PongWait * 9 / 10
	}
	if o.Config.MaxMessageBytes <= 0 {
		o.Config.MaxMessageBytes = 1 << 20
	}
	return o
}

// Handler upgrades GET /ws/session requests and starts a Session per connection.
type Handler struct {
	opts     Options
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates the session endpoint.
func NewHandler(opts Options) *Handler {
	opts = opts.withDefaults()
	h := &Handler{
		opts:   opts,
		logger: opts.Logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.Config.ReadBufferSize,
		WriteBufferSize: opts.Config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			h.opts.ErrorHandler.HandleError(w, r,
				apierrors.UpgradeError(status, reason.Error()))
		},
	}
	return h
}

// ServeHTTP upgrades the connection and runs the session pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the request.
		return
	}

	s := newSession(NewConnectionWrapper(conn), r, h.opts)
	s.queue(s.welcome())
	if h.opts.Hub != nil {
		h.opts.Hub.Register(s)
	}

	go s.WritePump()
	go s.ReadPump()
}

// checkOrigin allows same-host pages, requests without an Origin header and
// the configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "websocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.opts.AllowedOrigins))
	return false
}
