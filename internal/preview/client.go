// Package preview implements the PreviewInstance contract over a websocket
// connection to a preview engine. The wire protocol is a small JSON envelope:
// requests carry an ID and a method, the engine answers with the same ID, and
// pushes unsolicited stateChanged events whenever the element tree changes
// (template load, variant switch).
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stasautomadic/templatesync"
)

// request is one client-to-engine command.
type request struct {
	ID     string                 `json:"id"`
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// envelope is any engine-to-client message: a reply (ID set) or an event.
type envelope struct {
	ID       string                 `json:"id,omitempty"`
	Result   json.RawMessage        `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Event    string                 `json:"event,omitempty"`
	Elements []templatesync.Element `json:"elements,omitempty"`
}

const eventStateChanged = "stateChanged"

// StateFunc receives the element tree carried by a stateChanged event.
type StateFunc func(elements []templatesync.Element)

// Client is a websocket-backed preview instance. It satisfies
// templatesync.PreviewInstance and is safe for concurrent use; replies are
// matched to callers by request ID.
type Client struct {
	conn   *websocket.Conn
	logger *log.Logger

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan envelope

	onState StateFunc

	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithStateFunc registers the stateChanged callback.
func WithStateFunc(fn StateFunc) Option {
	return func(c *Client) { c.onState = fn }
}

// WithLogger sets the logger for read-loop failures.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Dial connects to a preview engine and starts the read loop.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial preview engine: %w", err)
	}

	c := &Client{
		conn:    conn,
		logger:  log.Default(),
		pending: make(map[string]chan envelope),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c, nil
}

// Close tears down the connection. Pending calls fail with a closed error.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Error("preview connection read failed", "err", err)
			}
			return
		}

		if env.Event == eventStateChanged {
			if c.onState != nil {
				c.onState(env.Elements)
			}
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[env.ID]
		if ok {
			delete(c.pending, env.ID)
		}
		c.pendingMu.Unlock()

		if !ok {
			c.logger.Warn("reply for unknown request", "id", env.ID)
			continue
		}
		ch <- env
	}
}

// call sends one request and blocks for its reply.
func (c *Client) call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan envelope, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(request{ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case env := <-ch:
		if env.Error != "" {
			return nil, fmt.Errorf("%s: %s", method, env.Error)
		}
		return env.Result, nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("%s: connection closed", method)
	}
}

// Elements returns the element tree of the currently loaded template.
func (c *Client) Elements(ctx context.Context) ([]templatesync.Element, error) {
	result, err := c.call(ctx, "getElements", nil)
	if err != nil {
		return nil, err
	}
	var elements []templatesync.Element
	if err := json.Unmarshal(result, &elements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return elements, nil
}

// SetTime seeks the instance's playhead.
func (c *Client) SetTime(ctx context.Context, seconds float64) error {
	_, err := c.call(ctx, "setTime", map[string]interface{}{"time": seconds})
	return err
}

// SetModifications replaces the instance's property overrides.
func (c *Client) SetModifications(ctx context.Context, mods map[string]string) error {
	_, err := c.call(ctx, "setModifications", map[string]interface{}{"modifications": mods})
	return err
}

// Source exports the instance's current template graph.
func (c *Client) Source(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "getSource", nil)
}

// LoadTemplate loads a template by ID.
func (c *Client) LoadTemplate(ctx context.Context, templateID string) error {
	_, err := c.call(ctx, "loadTemplate", map[string]interface{}{"templateId": templateID})
	return err
}
