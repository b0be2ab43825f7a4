package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	provider "github.com/sustainwear/donation-platform-go/provider"
	store "github.com/sustainwear/donation-platform-go/store"
)

type Config struct {
	MongoClient *mongo.Client
	DBName      string

	JWTSecret string

	Provider provider.API
	Store    *store.Mongo

	// AllowAccountUpgrade controls the duplicate-email policy during charity
	// approval: false rejects applications whose contact email already has an
	// account, true promotes that account in place.
	AllowAccountUpgrade bool
}

func Load() (*Config, error) {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "sustainwear"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	providerURL := os.Getenv("IDP_API_URL")
	providerKey := os.Getenv("IDP_SECRET_KEY")
	if providerURL == "" || providerKey == "" {
		return nil, fmt.Errorf("IDP_API_URL and IDP_SECRET_KEY are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping error: %v", err)
	}

	return &Config{
		MongoClient:         client,
		DBName:              dbName,
		JWTSecret:           jwtSecret,
		Provider:            provider.NewClient(providerURL, providerKey),
		Store:               store.NewMongo(client.Database(dbName)),
		AllowAccountUpgrade: os.Getenv("ALLOW_ACCOUNT_UPGRADE") == "true",
	}, nil
}
