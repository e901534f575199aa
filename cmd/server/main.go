package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"login_gateway/internal/config"
	"login_gateway/internal/protocol/login"
	"login_gateway/internal/protocol/version"
	"login_gateway/internal/repository/player"
	"login_gateway/internal/service/auth"
	redisSvc "login_gateway/internal/service/redis"
	"login_gateway/internal/service/server"
	"login_gateway/internal/utils/log"

	"github.com/docopt/docopt-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const usage = `
Usage: gateway [options]

Options:
  -c, --config <path>  Read configuration from <path>
  -h, --help           Print this message and exit
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		return err
	}
	path, _ := opts.String("--config")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	decrypter, err := cfg.Decrypter()
	if err != nil {
		return err
	}

	mongoDBClient, err := initMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer mongoDBClient.Disconnect(context.Background())

	db := mongoDBClient.Database(cfg.Mongo.Database)
	players := player.NewPlayerRepo(db)
	if err := players.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure player indexes: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	sessions, err := redisSvc.NewSessionStore(rdb, cfg.SessionSecret, cfg.SessionTTL.Duration)
	if err != nil {
		return err
	}

	registry := server.NewRegistry()
	hub := server.NewHub()
	sink := login.Sinks{server.LogSink{}, hub}

	decoder := login.NewDecoder(decrypter, version.MachineInfo{Version: cfg.MachineInfoVersion},
		login.WithEventSink(sink))
	authSvc := auth.NewService(players, sessions, registry,
		auth.WithAutoRegister(cfg.AutoRegister),
		auth.WithEventSink(sink))
	gateway := server.NewGateway(decoder, authSvc, registry,
		server.WithReadBufferSize(cfg.ReadBufferSize),
		server.WithHandshakeTimeout(cfg.HandshakeTimeout.Duration),
		server.WithGatewaySink(sink))

	ops := server.NewOpsServer(registry, sessions, hub,
		server.HealthCheck{Name: "mongo", Check: func(ctx context.Context) error {
			return mongoDBClient.Ping(ctx, nil)
		}},
		server.HealthCheck{Name: "redis", Check: sessions.Ping},
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gateway.ListenAndServe(ctx, cfg.GatewayAddr)
	})
	g.Go(func() error {
		return ops.Run(ctx, cfg.OpsAddr)
	})

	err = g.Wait()
	log.Info("gateway stopped", zap.Error(err))
	return err
}

func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
