package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"login_gateway/internal/model"
	"login_gateway/internal/protocol/login"
	"login_gateway/internal/utils/log"

	"go.uber.org/zap"
)

const defaultReadBufferSize = 4096

type (
	// Consumer takes a decoded login and decides the player's fate. It answers
	// the client itself and returns the live session when the login stands.
	Consumer interface {
		Accept(ctx context.Context, conn login.Conn, req *model.LoginRequest) (*model.LiveSession, error)
	}

	Gateway struct {
		decoder  *login.Decoder
		consumer Consumer
		registry *Registry
		sink     login.EventSink

		bufSize          int
		handshakeTimeout time.Duration
		now              func() time.Time

		wg sync.WaitGroup
	}

	GatewayOption func(*Gateway)
)

func WithReadBufferSize(n int) GatewayOption {
	return func(g *Gateway) { g.bufSize = n }
}

// WithHandshakeTimeout drops clients that have not finished their login frame
// within d.
func WithHandshakeTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.handshakeTimeout = d }
}

func WithGatewaySink(sink login.EventSink) GatewayOption {
	return func(g *Gateway) { g.sink = sink }
}

func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

func NewGateway(decoder *login.Decoder, consumer Consumer, registry *Registry, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		decoder:  decoder,
		consumer: consumer,
		registry: registry,
		sink:     login.Sinks(nil),
		bufSize:  defaultReadBufferSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info("gateway listening", zap.String("addr", ln.Addr().String()))
	return g.Serve(ctx, ln)
}

// Serve accepts connections until ctx is done, then closes ln and waits for
// every connection goroutine to return.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				g.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			g.wg.Wait()
			return fmt.Errorf("accept: %w", err)
		}

		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			g.handleConn(ctx, conn)
		}()
	}
}

func (g *Gateway) handleConn(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	st := login.NewState(remoteHost(conn.RemoteAddr()))
	if g.handshakeTimeout > 0 {
		conn.SetReadDeadline(g.now().Add(g.handshakeTimeout))
	}

	var in bytes.Buffer
	buf := make([]byte, g.bufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			in.Write(buf[:n])
			req, perr := g.decoder.Process(st, &in, conn)
			if perr != nil {
				log.Debug("login rejected", zap.String("address", st.Address), zap.Error(perr))
				return
			}
			if req != nil {
				conn.SetReadDeadline(time.Time{})
				g.play(ctx, conn, req, in.Len())
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("handshake read failed", zap.String("address", st.Address), zap.Error(err))
			}
			return
		}
	}
}

// play hands the request to the consumer and holds an accepted connection
// until the client leaves.
func (g *Gateway) play(ctx context.Context, conn net.Conn, req *model.LoginRequest, pending int) {
	live, err := g.consumer.Accept(ctx, conn, req)
	if err != nil {
		log.Warn("accept login failed", zap.String("username", req.Credentials.Username), zap.Error(err))
	}
	if live == nil {
		return
	}
	if pending > 0 {
		log.Debug("bytes after login frame", zap.String("username", live.Username), zap.Int("count", pending))
	}

	io.Copy(io.Discard, conn)

	g.registry.Release(live)
	g.sink.Emit(model.LoginEvent{
		Kind:         model.EventDisconnected,
		Username:     live.Username,
		Address:      live.Address,
		Reconnecting: live.Reconnecting,
		At:           g.now(),
	})
}

func remoteHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
