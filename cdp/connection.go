/*
 *
 * extdriver - helpers for driving Ext JS pages from Go
 * Copyright (C) 2024 extdriver authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package cdp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/cdp"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"

	"github.com/liuxd6825/extdriver/log"
)

const wsWriteBufferSize = 1 << 20

// ErrConnectionClosed is returned by commands sent on, or waiting for a
// reply from, a closed connection.
var ErrConnectionClosed = errors.New("cdp connection closed")

var _ cdp.Executor = &Connection{}

// Connection is a WebSocket connection to the DevTools endpoint of a single
// page. Replies are routed back to the command that is waiting for them by
// message ID. Events are logged and dropped.
type Connection struct {
	wsURL        string
	logger       *log.Logger
	conn         *websocket.Conn
	sendCh       chan *cdproto.Message
	done         chan struct{}
	shutdownOnce sync.Once
	closeErr     error
	msgID        int64

	pendingMu sync.Mutex
	pending   map[int64]chan *cdproto.Message

	// Reuse the easyjson structs to avoid allocs per Read/Write.
	decoder jlexer.Lexer
	encoder jwriter.Writer
}

// NewConnection dials the page WebSocket at wsURL.
func NewConnection(ctx context.Context, wsURL string, logger *log.Logger) (*Connection, error) {
	wsd := websocket.Dialer{
		HandshakeTimeout: time.Second * 60,
		Proxy:            http.ProxyFromEnvironment,
		WriteBufferSize:  wsWriteBufferSize,
	}

	conn, _, err := wsd.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	c := Connection{
		wsURL:   wsURL,
		logger:  logger,
		conn:    conn,
		sendCh:  make(chan *cdproto.Message, 32), // Avoid blocking in Execute
		done:    make(chan struct{}),
		pending: make(map[int64]chan *cdproto.Message),
	}

	go c.recvLoop()
	go c.sendLoop()

	return &c, nil
}

// closeConnection cleanly closes the WebSocket connection and fails every
// command still waiting for a reply.
func (c *Connection) closeConnection(code int, cause error) error {
	var err error

	c.shutdownOnce.Do(func() {
		c.closeErr = cause
		err = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""),
			time.Now().Add(10*time.Second),
		)
		_ = c.conn.Close()
		close(c.done)

		c.pendingMu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	})

	return err
}

func (c *Connection) handleIOError(err error) {
	code := websocket.CloseGoingAway
	var cerr *websocket.CloseError
	if errors.As(err, &cerr) {
		code = cerr.Code
	}
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Errorf("cdp", "connection to %s closed unexpectedly: %v", c.wsURL, err)
	}
	_ = c.closeConnection(code, err)
}

func (c *Connection) recvLoop() {
	for {
		_, buf, err := c.conn.ReadMessage()
		if err != nil {
			c.handleIOError(err)
			return
		}

		c.logger.Debugf("cdp:recv", "<- %s", buf)

		var msg cdproto.Message
		c.decoder = jlexer.Lexer{Data: buf}
		msg.UnmarshalEasyJSON(&c.decoder)
		if err := c.decoder.Error(); err != nil {
			c.logger.Errorf("cdp", "decoding message: %v", err)
			continue
		}

		switch {
		case msg.ID != 0:
			c.pendingMu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.pendingMu.Unlock()
			if ok {
				ch <- &msg
			}
		case msg.Method != "":
			c.logger.Tracef("cdp", "ignoring event %s", msg.Method)
		default:
			c.logger.Errorf("cdp", "ignoring malformed incoming message (missing id or method): %s", buf)
		}
	}
}

func (c *Connection) sendLoop() {
	for {
		select {
		case msg := <-c.sendCh:
			c.encoder = jwriter.Writer{}
			msg.MarshalEasyJSON(&c.encoder)
			if err := c.encoder.Error; err != nil {
				c.fail(msg.ID, err)
				continue
			}

			buf, _ := c.encoder.BuildBytes()
			c.logger.Debugf("cdp:send", "-> %s", buf)
			if err := c.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				c.handleIOError(err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// fail answers the command waiting on id with err.
func (c *Connection) fail(id int64, err error) {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.pendingMu.Unlock()
	if ok {
		ch <- &cdproto.Message{ID: id, Error: &cdproto.Error{Message: err.Error()}}
	}
}

func (c *Connection) register(id int64) (chan *cdproto.Message, error) {
	ch := make(chan *cdproto.Message, 1)
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	select {
	case <-c.done:
		return nil, c.err()
	default:
	}
	c.pending[id] = ch
	return ch, nil
}

func (c *Connection) forget(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

func (c *Connection) err() error {
	if c.closeErr != nil && !websocket.IsCloseError(c.closeErr, websocket.CloseNormalClosure) {
		return errors.Join(ErrConnectionClosed, c.closeErr)
	}
	return ErrConnectionClosed
}

// Close closes the connection. Commands in flight fail with ErrConnectionClosed.
func (c *Connection) Close() error {
	return c.closeConnection(websocket.CloseNormalClosure, nil)
}

// Execute implements cdp.Executor and performs a synchronous send and receive.
func (c *Connection) Execute(ctx context.Context, method string, params easyjson.Marshaler, res easyjson.Unmarshaler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := atomic.AddInt64(&c.msgID, 1)

	var buf []byte
	if params != nil {
		var err error
		buf, err = easyjson.Marshal(params)
		if err != nil {
			return err
		}
	}

	ch, err := c.register(id)
	if err != nil {
		return err
	}

	msg := &cdproto.Message{
		ID:     id,
		Method: cdproto.MethodType(method),
		Params: buf,
	}
	select {
	case c.sendCh <- msg:
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	case <-c.done:
		return c.err()
	}

	select {
	case reply, ok := <-ch:
		switch {
		case !ok:
			return c.err()
		case reply.Error != nil:
			return reply.Error
		case res != nil:
			return easyjson.Unmarshal(reply.Result, res)
		}
		return nil
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}
}
