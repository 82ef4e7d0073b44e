package store

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"
)

// connHook feeds transport events from go-redis into the client's State.
// A successful dial marks the store connected; a transport failure on dial
// or on any command marks it disconnected.
type connHook struct {
	client *Client
}

var _ redis.Hook = (*connHook)(nil)

func (h *connHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.observe(err)
			return nil, err
		}
		h.client.up()
		return conn, nil
	}
}

func (h *connHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		h.observe(err)
		return err
	}
}

func (h *connHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		h.observe(err)
		return err
	}
}

func (h *connHook) observe(err error) {
	if !isTransportError(err) {
		return
	}
	if h.client.state.Connected() {
		h.client.down(err)
		return
	}
	h.client.logger.Debug().Err(err).Msg("Redis still unreachable")
}
