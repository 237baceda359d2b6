package discord

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/presence"
)

// Classified handshake/transport failures. The supervisor branches on these
// to decide whether a retry can ever help.
var (
	// ErrInvalidAppID means Discord rejected the application ID. Retrying
	// with the same ID is pointless.
	ErrInvalidAppID = errors.New("invalid Discord application ID")

	// ErrUnreachable means no local Discord client is listening.
	ErrUnreachable = errors.New("Discord is not running or IPC is not available")

	// ErrNotConnected means an operation ran before a successful handshake.
	ErrNotConnected = errors.New("not connected to Discord")
)

// responseTimeout bounds the wait for Discord's reply to a single frame.
const responseTimeout = 5 * time.Second

var ulidEntropy = ulid.Monotonic(rand.Reader, 0)

func newNonce() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// Client holds one IPC connection to the local Discord client. Methods are
// safe for concurrent use; frames on the single connection are serialized.
type Client struct {
	mu    sync.Mutex
	conn  net.Conn
	appID string
}

// NewClient returns an unconnected client.
func NewClient() *Client {
	return &Client{}
}

type handshakeRequest struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

// activityArgs is the SET_ACTIVITY args object. Activity has no omitempty:
// clearing sends an explicit null, which Discord treats differently from an
// omitted key.
type activityArgs struct {
	PID      int                `json:"pid"`
	Activity *presence.Activity `json:"activity"`
}

type commandRequest struct {
	Cmd   string       `json:"cmd"`
	Args  activityArgs `json:"args"`
	Nonce string       `json:"nonce"`
}

type serverEvent struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Data  json.RawMessage `json:"data"`
	Nonce string          `json:"nonce"`
}

type closeEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Close codes Discord sends on a rejected handshake.
const (
	closeCodeInvalidClientID = 4000
	closeCodeInvalidVersion  = 4001
)

// Connect dials the local Discord socket and performs the handshake.
// On success the client is ready for SetActivity/Clear. Failures are
// classified: ErrInvalidAppID, ErrUnreachable, or a generic error.
func (c *Client) Connect(ctx context.Context, appID string) error {
	if err := presence.ValidateAppID(appID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAppID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	conn, err := dialIPC(ctx)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(responseTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if err := writeFrame(conn, OpHandshake, handshakeRequest{Version: 1, ClientID: appID}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}

	op, payload, err := readFrame(conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake response: %w", err)
	}

	switch op {
	case OpClose:
		_ = conn.Close()
		var ce closeEvent
		_ = json.Unmarshal(payload, &ce)
		if ce.Code == closeCodeInvalidClientID {
			return ErrInvalidAppID
		}
		return fmt.Errorf("handshake rejected: code %d: %s", ce.Code, ce.Message)
	case OpFrame:
		var evt serverEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			_ = conn.Close()
			return fmt.Errorf("decode handshake response: %w", err)
		}
		if evt.Evt == "ERROR" {
			_ = conn.Close()
			return decodeEventError(evt)
		}
		// DISPATCH/READY: connection established.
	default:
		_ = conn.Close()
		return fmt.Errorf("unexpected handshake opcode %d", op)
	}

	_ = conn.SetDeadline(time.Time{})
	c.conn = conn
	c.appID = appID
	return nil
}

// SetActivity publishes an activity. A nil activity clears the presence.
func (c *Client) SetActivity(ctx context.Context, activity *presence.Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(responseTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	defer func() {
		if c.conn != nil {
			_ = c.conn.SetDeadline(time.Time{})
		}
	}()

	req := commandRequest{
		Cmd:   "SET_ACTIVITY",
		Args:  activityArgs{PID: os.Getpid(), Activity: activity},
		Nonce: newNonce(),
	}
	if err := writeFrame(c.conn, OpFrame, req); err != nil {
		c.teardownLocked()
		return fmt.Errorf("send activity: %w", err)
	}

	// Skip unrelated dispatch events until our nonce answers or the
	// connection errors out.
	for {
		op, payload, err := readFrame(c.conn)
		if err != nil {
			c.teardownLocked()
			return fmt.Errorf("activity response: %w", err)
		}
		switch op {
		case OpPing:
			if err := writeFrame(c.conn, OpPong, json.RawMessage(payload)); err != nil {
				c.teardownLocked()
				return fmt.Errorf("pong: %w", err)
			}
			continue
		case OpClose:
			c.teardownLocked()
			var ce closeEvent
			_ = json.Unmarshal(payload, &ce)
			return fmt.Errorf("connection closed by Discord: code %d: %s", ce.Code, ce.Message)
		case OpFrame:
			var evt serverEvent
			if err := json.Unmarshal(payload, &evt); err != nil {
				c.teardownLocked()
				return fmt.Errorf("decode activity response: %w", err)
			}
			if evt.Nonce != "" && evt.Nonce != req.Nonce {
				continue
			}
			if evt.Evt == "ERROR" {
				return decodeEventError(evt)
			}
			return nil
		default:
			continue
		}
	}
}

// Clear removes the published activity.
func (c *Client) Clear(ctx context.Context) error {
	return c.SetActivity(ctx, nil)
}

// Close tears down the connection. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}

func (c *Client) teardownLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func decodeEventError(evt serverEvent) error {
	var data struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(evt.Data, &data)
	if data.Code == closeCodeInvalidClientID {
		return ErrInvalidAppID
	}
	if data.Message == "" {
		data.Message = "unknown error"
	}
	return fmt.Errorf("Discord error %d: %s", data.Code, data.Message)
}
