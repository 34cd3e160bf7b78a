package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxRetries    = 5
	retryInterval = 2 * time.Second
)

// Connect establishes a MongoDB client with bounded connect-and-ping retries.
func Connect(ctx context.Context, mongoURL string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(10)

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var client *mongo.Client
		client, err = mongo.Connect(ctx, opts)
		if err == nil {
			if pingErr := client.Ping(ctx, nil); pingErr == nil {
				log.Println("mongodb connected")
				return client, nil
			} else {
				_ = client.Disconnect(ctx)
				err = pingErr
			}
		}

		log.Printf("mongodb connection attempt %d/%d failed: %v", attempt, maxRetries, err)
		if attempt < maxRetries {
			time.Sleep(retryInterval)
		}
	}

	return nil, fmt.Errorf("mongodb connection failed after %d attempts: %w", maxRetries, err)
}
