package mongo

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"capacitor/internal/platform/config"
)

// URI returns the connection string for cfg. An explicit URI wins over the
// discrete user/password/host/port settings.
func URI(cfg config.MongoConfig) string {
	if cfg.URI != "" {
		return cfg.URI
	}
	u := url.URL{Scheme: "mongodb", Host: net.JoinHostPort(cfg.Host, cfg.Port)}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(URI(cfg))
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("malformed mongo options: %w", err)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}
	return client, nil
}
