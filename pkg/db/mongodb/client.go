package mongodb

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"dbprobe/pkg/secrets"
	"dbprobe/pkg/telemetry"
)

// Internal variables for testing
var (
	mongoConnect = mongo.Connect
)

var tracer = telemetry.GetTracer("db/mongodb")

// Store wraps the MongoDB client to report the server version.
type Store struct {
	Client *mongo.Client
}

// Connect establishes a connection to MongoDB and verifies it with a Ping.
// The client is disconnected again if the ping fails.
func Connect(ctx context.Context, creds secrets.Credentials) (*Store, error) {
	uri, err := URI(creds)
	if err != nil {
		return nil, err
	}

	client, err := mongoConnect(options.Client().ApplyURI(uri).SetMaxPoolSize(1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{Client: client}, nil
}

// URI builds a mongodb:// connection string; authentication happens against
// the database named in the credentials.
func URI(creds secrets.Credentials) (string, error) {
	if creds.Host == "" {
		return "", fmt.Errorf("missing required database credential: host")
	}

	host := creds.Host
	if creds.Port != "" {
		host = net.JoinHostPort(host, string(creds.Port))
	}

	u := &url.URL{
		Scheme: "mongodb",
		Host:   host,
		Path:   "/" + creds.Database,
	}
	if creds.Username != "" {
		u.User = url.UserPassword(creds.Username, creds.Password)
	}

	return u.String(), nil
}

// Version runs the buildInfo command and returns the server version.
func (s *Store) Version(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "db.mongodb.build_info", telemetry.WithAttributes(
		telemetry.String("db.system", "mongodb"),
	))
	defer span.End()

	var info struct {
		Version string `bson:"version"`
	}
	err := s.Client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("buildInfo failed: %w", err)
	}

	return info.Version, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return disconnect(s.Client)
}

func disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
