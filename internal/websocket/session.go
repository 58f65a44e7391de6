package websocket

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "bizdash/internal/errors"
	"bizdash/internal/infrastructure"
	"bizdash/internal/services"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Outbound buffer per session.
	sendBuffer = 64
)

// Session is one interactive dashboard connection. It owns at most one
// dataset at a time and handles requests one by one in ReadPump, so a
// process or report always sees the dataset loaded before it.
type Session struct {
	id      string
	traceID string
	conn    Connection
	hub     *Hub
	service SessionService
	errors  *apierrors.ErrorHandler
	request *http.Request
	metrics *Metrics
	logger  *slog.Logger

	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessage     int64
	messageTimeout time.Duration

	// send is closed by the hub, or by ReadPump when the session is not registered.
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc

	datasetID   string
	connectedAt time.Time
	received    int64
}

func newSession(conn Connection, r *http.Request, opts Options) *Session {
	opts = opts.withDefaults()

	traceID := middleware.GetReqID(r.Context())
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}
	id := uuid.NewString()

	// The upgrade request context ends when the handler returns.
	ctx, cancel := context.WithCancel(infrastructure.WithTraceID(context.Background(), traceID))

	return &Session{
		id:             id,
		traceID:        traceID,
		conn:           conn,
		hub:            opts.Hub,
		service:        opts.Service,
		errors:         opts.ErrorHandler,
		request:        r,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With(slog.String("session_id", id)),
		pongWait:       opts.Config.PongWait,
		pingPeriod:     opts.Config.PingPeriod,
		maxMessage:     opts.Config.MaxMessageBytes,
		messageTimeout: opts.MessageTimeout,
		send:           make(chan []byte, sendBuffer),
		ctx:            ctx,
		cancel:         cancel,
		connectedAt:    time.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ReadPump reads requests until the peer goes away. Each request is handled
// to completion before the next is read.
func (s *Session) ReadPump() {
	defer func() {
		s.cancel()
		s.logger.InfoContext(s.ctx, "websocket session closed",
			slog.Duration("connection_duration", time.Since(s.connectedAt)),
			slog.Int64("messages_received", s.received),
			slog.String("dataset_id", s.datasetID))
		s.metrics.RecordSessionClosed(s.ctx, time.Since(s.connectedAt))
		if s.hub != nil {
			s.hub.Unregister(s)
		} else {
			s.closeSend()
		}
	}()

	s.conn.SetReadLimit(s.maxMessage)
	s.extendReadDeadline()
	s.conn.SetPongHandler(func(string) error { s.extendReadDeadline(); return nil })

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WarnContext(s.ctx, "unexpected websocket close",
					slog.String("error", err.Error()))
			}
			return
		}
		message = bytes.TrimSpace(message)
		s.received++
		s.metrics.RecordBytes(s.ctx, "in", len(message))

		if resp := s.handle(message); resp != nil {
			s.queue(resp)
		}
		// Strategies can outlast the pong window.
		s.extendReadDeadline()
	}
}

// WritePump writes queued responses and keeps the connection alive with pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(s.pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.ErrorContext(s.ctx, "error writing websocket message",
					slog.String("error", err.Error()))
				return
			}
			s.metrics.RecordBytes(s.ctx, "out", len(message))
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.DebugContext(s.ctx, "failed to send ping",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (s *Session) extendReadDeadline() {
	s.conn.SetReadDeadline(time.Now().Add(s.pongWait))
}

func (s *Session) closeSend() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// deliver queues payload without blocking. It reports false when the session
// is closed or its buffer is full.
func (s *Session) deliver(payload []byte) bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// handle decodes and serves one request. Heartbeats get no response.
func (s *Session) handle(raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.errorResponse("", apierrors.InvalidRequestWithError(err))
	}
	if req.Type == TypeHeartbeat {
		return nil
	}

	ctx := s.ctx
	if s.messageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.messageTimeout)
		defer cancel()
	}

	start := time.Now()
	data, err := s.dispatch(ctx, req)
	s.metrics.RecordMessage(ctx, req.Type, time.Since(start), err)
	if err != nil {
		s.logger.WarnContext(ctx, "session request failed",
			slog.String("type", req.Type),
			slog.String("error", err.Error()))
		return s.errorResponse(req.ID, err)
	}
	return s.response(req.ID, req.Type, data)
}

func (s *Session) dispatch(ctx context.Context, req Request) (interface{}, error) {
	switch req.Type {
	case TypeDomains:
		return s.service.Domains(), nil

	case TypeLoad:
		if strings.TrimSpace(req.DatasetID) == "" {
			return nil, apierrors.ErrValidation("dataset_id", "is required")
		}
		info, err := s.service.Dataset(ctx, req.DatasetID)
		if err != nil {
			return nil, err
		}
		s.datasetID = info.ID
		return info, nil

	case TypeUpload:
		body, err := uploadReader(req)
		if err != nil {
			return nil, err
		}
		info, err := s.service.Ingest(ctx, req.Name, body)
		if err != nil {
			return nil, err
		}
		s.datasetID = info.ID
		return info, nil

	case TypeCountries:
		id, err := s.currentDataset()
		if err != nil {
			return nil, err
		}
		return s.service.Countries(ctx, id)

	case TypeProcess:
		id, err := s.currentDataset()
		if err != nil {
			return nil, err
		}
		return s.service.Process(ctx, services.ProcessRequest{
			DatasetID: id,
			Domain:    req.Domain,
			Options:   req.Options,
		})

	case TypeReport:
		id, err := s.currentDataset()
		if err != nil {
			return nil, err
		}
		return s.service.Report(ctx, services.ReportRequest{
			ProcessRequest: services.ProcessRequest{
				DatasetID: id,
				Domain:    req.Domain,
				Options:   req.Options,
			},
			Formats: req.Formats,
		})
	}
	return nil, apierrors.NewValidationError(fmt.Sprintf("unknown message type %q", req.Type))
}

func (s *Session) currentDataset() (string, error) {
	if s.datasetID == "" {
		return "", apierrors.NewAppError(apierrors.ErrTypeValidation,
			"load or upload a dataset first", services.ErrSessionNoDataset)
	}
	return s.datasetID, nil
}

func uploadReader(req Request) (io.Reader, error) {
	if req.Name == "" {
		return nil, apierrors.ErrValidation("name", "is required")
	}
	if req.Content == "" {
		return nil, apierrors.ErrValidation("content", "is required")
	}
	switch req.Encoding {
	case "":
		return strings.NewReader(req.Content), nil
	case EncodingBase64:
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return nil, apierrors.ErrValidation("content", "is not valid base64")
		}
		return bytes.NewReader(decoded), nil
	}
	return nil, apierrors.ErrValidation("encoding", fmt.Sprintf("unsupported encoding %q", req.Encoding))
}

func (s *Session) response(id, typ string, data interface{}) *Response {
	return &Response{
		ID:        id,
		Type:      typ,
		SessionID: s.id,
		DatasetID: s.datasetID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func (s *Session) errorResponse(id string, err error) *Response {
	resp := s.response(id, TypeError, nil)
	resp.Error = s.errors.ErrorToProblem(err, s.request).WithExtension("trace_id", s.traceID)
	return resp
}

// welcome is the first message of every session.
func (s *Session) welcome() *Response {
	return s.response("", TypeSession, map[string]interface{}{
		"domains": s.service.Domains(),
	})
}

// queue marshals resp onto the send buffer.
func (s *Session) queue(resp *Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.ErrorContext(s.ctx, "error marshaling websocket response",
			slog.String("type", resp.Type),
			slog.String("error", err.Error()))
		return
	}
	if !s.deliver(payload) {
		s.metrics.RecordDropped(s.ctx, resp.Type)
		s.logger.WarnContext(s.ctx, "session send buffer unavailable, dropping response",
			slog.String("type", resp.Type))
	}
}
