package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// Repository defines the interface for allocation run history.
type Repository interface {
	SaveRun(ctx context.Context, run models.AllocationRun) error
	RecentRuns(ctx context.Context, limit int) ([]models.AllocationRun, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "allocation_runs",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveRun stores one save, solve or validate attempt.
func (r *MongoDBRepository) SaveRun(ctx context.Context, run models.AllocationRun) error {
	if _, err := r.collection().InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to insert allocation run: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first.
func (r *MongoDBRepository) RecentRuns(ctx context.Context, limit int) ([]models.AllocationRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(ClampLimit(limit)))

	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := make([]models.AllocationRun, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode allocation runs: %w", err)
	}
	return runs, nil
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRunLimit
	case limit > maxRunLimit:
		return maxRunLimit
	default:
		return limit
	}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
