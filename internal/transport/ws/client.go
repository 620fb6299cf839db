package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/untillpro/goutils/logger"

	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Client is a git.Runner backed by one websocket connection. Requests are
// multiplexed and matched to responses by request id.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response

	done      chan struct{}
	closeOnce sync.Once
}

// Compile-time check.
var _ git.Runner = (*Client)(nil)

// Dial connects to url. timeout bounds each request that carries no
// deadline of its own; zero means git.DefaultTimeout.
func Dial(ctx context.Context, url string, header http.Header, timeout time.Duration) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if timeout <= 0 {
		timeout = git.DefaultTimeout
	}
	c := &Client{
		conn:    conn,
		timeout: timeout,
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Execute sends argv as a single quoted command and waits for its answer.
func (c *Client) Execute(ctx context.Context, workspaceID, dir string, argv []string) (string, error) {
	id := uuid.NewString()
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return "", ErrTransportClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := Request{
		RequestID: id,
		ID:        workspaceID,
		Path:      dir,
		Action:    ActionExec,
		Command:   git.QuoteCommand(argv),
	}
	logger.Verbose(fmt.Sprintf("[%s] ws %s", workspaceID, req.Command))
	if err := c.write(ctx, req); err != nil {
		return "", err
	}

	select {
	case resp := <-ch:
		if resp.Stderr != "" {
			return "", git.NewCommandError(argv, resp.Stderr, nil)
		}
		return resp.Stdout, nil
	case <-ctx.Done():
		return "", git.NewCommandError(argv, "", fmt.Errorf("%s: %w", req.Command, ctx.Err()))
	case <-c.done:
		return "", ErrTransportClosed
	}
}

func (c *Client) write(ctx context.Context, req Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		c.shutdown()
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	return nil
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	if c.pending != nil {
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("ws: read:", err)
			}
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.RequestID]
		delete(c.pending, resp.RequestID)
		c.mu.Unlock()
		if !ok {
			logger.Verbose("ws: dropping response for unknown request", resp.RequestID)
			continue
		}
		ch <- resp
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}

// Close fails every pending request with ErrTransportClosed and closes
// the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown()
	return nil
}
