package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"login_gateway/internal/cryptographic/encryption"
	"login_gateway/internal/cryptographic/kdf"
	"login_gateway/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const sealInfo = "login-gateway/session-store"

type (
	// SessionStore caches accepted sessions per username. Records are msgpack
	// encoded and sealed, since they carry the session's cipher seed.
	SessionStore struct {
		rdb    *redis.Client
		sealer *encryption.Sealer
		ttl    time.Duration
	}
)

func NewSessionStore(rdb *redis.Client, secret string, ttl time.Duration) (*SessionStore, error) {
	key, err := kdf.DeriveKey([]byte(secret), nil, sealInfo)
	if err != nil {
		return nil, err
	}
	sealer, err := encryption.NewSealer(key[:])
	if err != nil {
		return nil, err
	}
	return &SessionStore{
		rdb:    rdb,
		sealer: sealer,
		ttl:    ttl,
	}, nil
}

func sessionKey(name string) string {
	return fmt.Sprintf("session:%s", strings.ToLower(name))
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *SessionStore) Put(ctx context.Context, session *model.Session) error {
	key := sessionKey(session.Username)
	data, err := s.encode(key, session)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, s.ttl).Err()
}

// Get returns nil, nil when no session is cached for name.
func (s *SessionStore) Get(ctx context.Context, name string) (*model.Session, error) {
	key := sessionKey(name)
	v, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return s.decode(key, v)
}

func (s *SessionStore) Delete(ctx context.Context, name string) error {
	return s.rdb.Del(ctx, sessionKey(name)).Err()
}

func (s *SessionStore) encode(key string, session *model.Session) ([]byte, error) {
	plain, err := msgpack.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("msgpack.Marshal session: %w", err)
	}
	return s.sealer.Seal(plain, []byte(key))
}

func (s *SessionStore) decode(key string, sealed []byte) (*model.Session, error) {
	plain, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := msgpack.Unmarshal(plain, &session); err != nil {
		return nil, fmt.Errorf("msgpack.Unmarshal session: %w", err)
	}
	return &session, nil
}
