package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDB = "tarjetas"

// MongoDatabaseName returns the database named in the URI path, or the default.
func MongoDatabaseName(mongoURI string) (string, error) {
	uri, err := url.Parse(mongoURI)
	if err != nil {
		return "", fmt.Errorf("error parsing MongoDB URI: %w", err)
	}
	if name := strings.TrimPrefix(uri.Path, "/"); name != "" {
		return name, nil
	}
	return defaultMongoDB, nil
}

// ConnectMongo connects, pings and returns the database named in the URI.
func ConnectMongo(mongoURI string) (*mongo.Database, error) {
	dbName, err := MongoDatabaseName(mongoURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	return client.Database(dbName), nil
}
