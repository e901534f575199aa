package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"login_gateway/internal/model"
	"login_gateway/internal/protocol/login"
	"login_gateway/internal/utils/log"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type (
	PlayerStore interface {
		GetByName(ctx context.Context, name string) (*model.Player, error)
		Create(ctx context.Context, p *model.Player) (primitive.ObjectID, error)
		TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time, address string) error
	}

	SessionCache interface {
		Get(ctx context.Context, name string) (*model.Session, error)
		Put(ctx context.Context, session *model.Session) error
	}

	// Presence tracks who is in the game. Claim fails when the name is
	// already online, unless replace is set.
	Presence interface {
		Claim(s *model.LiveSession, replace bool) bool
	}

	Service struct {
		players  PlayerStore
		sessions SessionCache
		presence Presence
		sink     login.EventSink

		autoRegister bool
		hashCost     int
		now          func() time.Time
	}

	Option func(*Service)
)

func WithAutoRegister(on bool) Option {
	return func(s *Service) { s.autoRegister = on }
}

func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func WithEventSink(sink login.EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(players PlayerStore, sessions SessionCache, presence Presence, opts ...Option) *Service {
	s := &Service{
		players:  players,
		sessions: sessions,
		presence: presence,
		sink:     login.Sinks(nil),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept authenticates a decoded login and answers the client. On success the
// status byte is written and the live session returned; otherwise the status
// byte is written, conn is closed and the session is nil.
func (s *Service) Accept(ctx context.Context, conn login.Conn, req *model.LoginRequest) (*model.LiveSession, error) {
	live, status, err := s.authenticate(ctx, req)
	if err != nil {
		log.Error("authenticate failed", zap.String("username", req.Credentials.Username), zap.Error(err))
	}

	ev := model.LoginEvent{
		Kind:         model.EventAuthenticated,
		Username:     req.Credentials.Username,
		Address:      req.Credentials.Address,
		Status:       status,
		StatusName:   status.String(),
		Reconnecting: req.Reconnecting,
		At:           s.now(),
	}
	if live == nil {
		ev.Kind = model.EventDenied
		s.sink.Emit(ev)
		if rerr := login.Respond(conn, status); rerr != nil {
			return nil, fmt.Errorf("respond %s: %w", status, rerr)
		}
		return nil, err
	}

	s.sink.Emit(ev)
	if _, werr := conn.Write([]byte{byte(status)}); werr != nil {
		return nil, fmt.Errorf("write %s: %w", status, werr)
	}
	return live, nil
}

func (s *Service) authenticate(ctx context.Context, req *model.LoginRequest) (*model.LiveSession, model.Status, error) {
	name := strings.ToLower(req.Credentials.Username)
	now := s.now()

	live := &model.LiveSession{
		Username:     name,
		Address:      req.Credentials.Address,
		Reconnecting: req.Reconnecting,
		Ciphers:      req.Ciphers,
		Since:        now,
	}

	if req.Reconnecting {
		cached, err := s.sessions.Get(ctx, name)
		if err != nil {
			return nil, model.StatusLoginServerOffline, fmt.Errorf("load session: %w", err)
		}
		// a wrong previous seed gets the same answer as a missing session
		if cached == nil || cached.Seed != req.PreviousSeed {
			return nil, model.StatusCouldNotComplete, nil
		}
		// the dropped connection may not have been noticed yet
		s.presence.Claim(live, true)
		if err := s.cacheSession(ctx, req, name, now); err != nil {
			log.Warn("cache session failed", zap.String("username", name), zap.Error(err))
		}
		return live, model.StatusReconnectionOK, nil
	}

	p, err := s.players.GetByName(ctx, name)
	if err != nil {
		return nil, model.StatusLoginServerOffline, fmt.Errorf("load player: %w", err)
	}

	if p == nil {
		if !s.autoRegister {
			return nil, model.StatusInvalidCredentials, nil
		}
		p, err = s.register(ctx, name, req.Credentials.Password, now)
		if err != nil {
			return nil, model.StatusCouldNotComplete, err
		}
	} else if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(req.Credentials.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, model.StatusInvalidCredentials, nil
		}
		return nil, model.StatusCouldNotComplete, fmt.Errorf("compare password: %w", err)
	}

	if p.Disabled {
		return nil, model.StatusAccountDisabled, nil
	}

	if !s.presence.Claim(live, false) {
		return nil, model.StatusAccountOnline, nil
	}

	// a failed bookkeeping write does not undo a verified login
	if err := s.players.TouchLogin(ctx, p.ID, now, req.Credentials.Address); err != nil {
		log.Warn("touch login failed", zap.String("username", name), zap.Error(err))
	}
	if err := s.cacheSession(ctx, req, name, now); err != nil {
		log.Warn("cache session failed", zap.String("username", name), zap.Error(err))
	}
	return live, model.StatusOK, nil
}

func (s *Service) register(ctx context.Context, name, password string, now time.Time) (*model.Player, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &model.Player{
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if _, err := s.players.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	log.Info("player registered", zap.String("username", name))
	return p, nil
}

func (s *Service) cacheSession(ctx context.Context, req *model.LoginRequest, name string, now time.Time) error {
	return s.sessions.Put(ctx, &model.Session{
		Username:  name,
		Address:   req.Credentials.Address,
		Release:   req.Release,
		LowMemory: req.LowMemory,
		Client:    req.Metadata.ClientType.String(),
		LoginAt:   now,
		Seed:      req.Ciphers.Decode.Seed(),
	})
}
