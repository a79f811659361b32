package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	sendTimeout     = time.Second
	maxInboundBytes = 8192

	// Minimum spacing of published messages; anything arriving sooner is skipped.
	publishInterval = 100 * time.Millisecond
	pingInterval    = 200 * time.Millisecond
	// A peer that misses this many ping intervals is considered gone.
	livenessWindow = 4 * pingInterval

	lockTimeout  = time.Second
	closingDelay = time.Second
)

var (
	ErrPeerUnresponsive = errors.New("peer missed its pong deadline")
	ErrConnBusy         = errors.New("timed out waiting for the connection")
)

var upgrader = websocket.Upgrader{}

// Client pushes a stream of idempotent updates to one browser over a websocket.
// Since only the newest update matters, updates that arrive faster than the publish
// interval are skipped. Inbound frames are read only so that control frames run.
type Client[T any] struct {
	updates <-chan T
	conn    *lockedConn
	ctx     context.Context
}

// NewClient upgrades the request and returns a Client publishing @updates.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	ws.SetReadLimit(maxInboundBytes)
	_ = ws.SetReadDeadline(time.Now().Add(livenessWindow))

	return &Client[T]{
		updates: updates,
		conn:    newLockedConn(ws),
		ctx:     r.Context(),
	}, nil
}

// Sync runs the reader, the keep-alive and the publisher until one of them fails or the
// peer goes away. A normal close by the peer yields nil.
func (cli *Client[T]) Sync() error {
	group, ctx := errgroup.WithContext(cli.ctx)
	group.Go(func() error { return cli.drain(ctx) })
	group.Go(func() error { return cli.keepAlive(ctx) })
	group.Go(func() error { return cli.publish(ctx) })
	return group.Wait()
}

// Close says goodbye to the peer. Only call it after Sync returns.
func (cli *Client[T]) Close() {
	cli.conn.close()
}

// keepAlive pings on an interval and fails once pongs stop arriving. Pongs are
// dispatched by drain, which also pushes out the read deadline on each.
func (cli *Client[T]) keepAlive(ctx context.Context) error {
	pongs := make(chan struct{})
	ws := cli.conn.raw()
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(livenessWindow))
		select {
		case pongs <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	})

	ticks := channerics.NewTicker(ctx.Done(), pingInterval)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pongs:
			lastPong = time.Now()
		case <-ticks:
			if time.Since(lastPong) > livenessWindow {
				return ErrPeerUnresponsive
			}
			err := cli.conn.write(ctx, func(ws *websocket.Conn) error {
				err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(sendTimeout))
				if unexpected(err) {
					return fmt.Errorf("ping: %w", err)
				}
				return err
			})
			if err != nil {
				return err
			}
		}
	}
}

// drain reads and discards inbound messages. Read errors are permanent.
func (cli *Client[T]) drain(ctx context.Context) error {
	for ctx.Err() == nil {
		err := cli.conn.read(ctx, func(ws *websocket.Conn) error {
			_, _, err := ws.ReadMessage()
			return err
		})
		switch {
		case closedNormally(err):
			return nil
		case err != nil:
			return err
		}
	}
	return nil
}

func (cli *Client[T]) publish(ctx context.Context) error {
	var lastSent time.Time
	for update := range channerics.OrDone(ctx.Done(), cli.updates) {
		if time.Since(lastSent) < publishInterval {
			continue
		}
		lastSent = time.Now()

		err := cli.conn.write(ctx, func(ws *websocket.Conn) error {
			if err := ws.SetWriteDeadline(time.Now().Add(sendTimeout)); err != nil {
				return fmt.Errorf("set write deadline: %w", err)
			}
			err := ws.WriteJSON(update)
			if unexpected(err) {
				return fmt.Errorf("publish: %w", err)
			}
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func unexpected(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func closedNormally(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// lockedConn admits one reader and one writer at a time, which is all gorilla's
// Conn supports. Each lock is a one-slot channel so that waiting can time out.
type lockedConn struct {
	reading chan struct{}
	writing chan struct{}
	ws      *websocket.Conn
}

func newLockedConn(ws *websocket.Conn) *lockedConn {
	return &lockedConn{
		reading: make(chan struct{}, 1),
		writing: make(chan struct{}, 1),
		ws:      ws,
	}
}

// raw exposes the connection for setup before any reader or writer runs.
func (c *lockedConn) raw() *websocket.Conn {
	return c.ws
}

func (c *lockedConn) read(ctx context.Context, fn func(*websocket.Conn) error) error {
	return with(ctx, c.reading, func() error { return fn(c.ws) })
}

func (c *lockedConn) write(ctx context.Context, fn func(*websocket.Conn) error) error {
	return with(ctx, c.writing, func() error { return fn(c.ws) })
}

// with runs @fn holding @lock. A cancelled @ctx skips @fn without error.
func with(ctx context.Context, lock chan struct{}, fn func() error) error {
	select {
	case <-ctx.Done():
		return nil
	case lock <- struct{}{}:
		defer func() { <-lock }()
		return fn()
	case <-time.After(lockTimeout):
		return ErrConnBusy
	}
}

// close takes both locks for good, sends a close frame and closes the connection.
func (c *lockedConn) close() {
	c.reading <- struct{}{}
	c.writing <- struct{}{}

	_ = c.ws.SetWriteDeadline(time.Now().Add(sendTimeout))
	_ = c.ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closingDelay)
	c.ws.Close()
}
