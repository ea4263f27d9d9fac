package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ifuryst/postpilot/pkg/apperror"
)

// Client is one websocket connection.
type Client struct {
	ID         string
	RemoteAddr string

	conn    *websocket.Conn
	hub     *Hub
	send    chan []byte
	limiter *rate.Limiter
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)
	id := uuid.NewString()

	cfg := hub.config
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		conn:       conn,
		hub:        hub,
		send:       make(chan []byte, cfg.SendBuffer),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:     hub.logger.With(zap.String("client_id", id)),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// readPump reads frames until the connection fails and runs each request
// to completion before reading the next one.
func (c *Client) readPump(h RequestHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageBytes)

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.logger.Debug("Client closed connection")
			} else if c.ctx.Err() == nil {
				c.logger.Warn("Read error", zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.SendError(envelope{}, apperror.New(apperror.CodeRateLimited, "Too many messages, please slow down"))
			continue
		}

		c.handleFrame(h, data)
	}
}

func (c *Client) handleFrame(h RequestHandler, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("Invalid JSON frame", zap.Error(err))
		c.SendError(env, apperror.Validation("invalid JSON: %v", err))
		return
	}
	req, err := decodeRequest(env.Type, data)
	if err != nil {
		c.SendError(env, apperror.Validation("invalid %s payload: %v", env.Type, err))
		return
	}
	if req == nil {
		c.hub.metrics.HubMessages.WithLabelValues("in", "unknown").Inc()
		c.logger.Info("Ignoring unknown message type", zap.String("type", string(env.Type)))
		return
	}
	c.hub.metrics.HubMessages.WithLabelValues("in", string(env.Type)).Inc()

	if err := req.Dispatch(c.ctx, c, h); err != nil {
		c.logger.Warn("Request failed",
			zap.String("type", string(env.Type)),
			zap.String("post_id", env.PostID),
			zap.Error(err))
		c.SendError(env, err)
	}
}

// writePump drains the send queue onto the connection.
func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, c.hub.config.WriteTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Warn("Write error", zap.Error(err))
				c.hub.Unregister(c)
				return
			}
		}
	}
}

// heartbeat pings the peer every interval. A pong that does not arrive
// within one interval drops the client.
func (c *Client) heartbeat() {
	interval := c.hub.config.HeartbeatInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, interval)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					c.logger.Warn("Heartbeat missed, dropping client", zap.Error(err))
					c.hub.metrics.HubDroppedClient.WithLabelValues("heartbeat").Inc()
				}
				c.hub.Unregister(c)
				c.Close()
				return
			}
		}
	}
}

// Send queues f for this client only.
func (c *Client) Send(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", f.FrameType(), err)
	}
	if !c.enqueue(data) {
		return errors.New("client send buffer full or closed")
	}
	c.hub.metrics.HubMessages.WithLabelValues("out", string(f.FrameType())).Inc()
	return nil
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// SendError replies with an error frame labelled with the failed request.
func (c *Client) SendError(env envelope, err error) {
	frame := ErrorFrame{
		Type:        TypeError,
		Message:     errorMessage(env.Type, err),
		Detail:      err.Error(),
		Code:        string(apperror.CodeOf(err)),
		RequestType: env.Type,
		PostID:      env.PostID,
		MessageID:   env.MessageID,
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		frame.Detail = appErr.Message
	}
	if sendErr := c.Send(frame); sendErr != nil {
		c.logger.Debug("Could not deliver error frame", zap.Error(sendErr))
	}
}

func errorMessage(t MessageType, err error) string {
	switch apperror.CodeOf(err) {
	case apperror.CodeNotFound:
		return "Not found"
	case apperror.CodeValidation:
		return "Invalid request"
	case apperror.CodeInvalidTransition:
		return "Invalid status transition"
	}
	if t == "" {
		return "Error processing message"
	}
	return fmt.Sprintf("Error processing %s", t)
}

// Close is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.cancel()
}
