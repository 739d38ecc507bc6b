package eventstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/specialistvlad/proxygraph/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const connectTimeout = 15 * time.Second

// ErrNotConnected is returned by Emit once the connection is gone.
var ErrNotConnected = errors.New("socket.io client is not connected")

// SocketPublisher emits events over a socket.io connection.
type SocketPublisher struct {
	io     *socket.Socket
	logger *slog.Logger
}

// Dial connects to the socket.io server at rawURL and namespace, waiting
// for the connection to be acknowledged.
func Dial(ctx context.Context, rawURL, namespace string) (*SocketPublisher, error) {
	logger := ctxlog.FromContext(ctx).With("component", "eventstream", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("event stream URL %q needs a scheme and a host", rawURL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	signal := func(err error) {
		select {
		case connected <- err:
		default:
		}
	}
	io.Once(types.EventName("connect"), func(...any) {
		signal(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		signal(err)
	})

	logger.Debug("Connecting event stream...")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}

	logger.Info("Event stream connected.", "sid", io.Id())
	return &SocketPublisher{io: io, logger: logger}, nil
}

// Emit sends payload as event.
func (p *SocketPublisher) Emit(event string, payload any) error {
	if !p.io.Connected() {
		return ErrNotConnected
	}
	p.io.Emit(event, payload)
	return nil
}

// Close disconnects from the server.
func (p *SocketPublisher) Close() error {
	p.logger.Debug("Disconnecting event stream.", "sid", p.io.Id())
	p.io.Disconnect()
	return nil
}
