package docstore

import (
	"context"
	"fmt"
	"time"

	"creativerse/internal/platform/config"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client

// Connect opens the document store used for the gateway callback archive.
// It returns a nil database when MONGO_URI is unset.
func Connect(ctx context.Context) (*mongo.Database, error) {
	if config.AppConfig.MongoURI == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.AppConfig.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	Client = client
	log.Info().Str("db", config.AppConfig.MongoDB).Msg("Successfully connected to MongoDB")
	return client.Database(config.AppConfig.MongoDB), nil
}

func Close(ctx context.Context) {
	if Client != nil {
		if err := Client.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Error disconnecting MongoDB")
			return
		}
		log.Info().Msg("MongoDB connection closed")
	}
}
