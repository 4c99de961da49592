package mongostore

import (
	"context"
	"fmt"
	"time"

	"incident-board/models"

	"github.com/apex/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	reportsCollection = "reports"
	connectTimeout    = 10 * time.Second
)

// reportDocument is the stored shape of a report
type reportDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Category    string             `bson:"category"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type categoryCount struct {
	Category string `bson:"_id"`
	Count    int    `bson:"count"`
}

// Store keeps reports in a MongoDB collection
type Store struct {
	client  *mongo.Client
	reports *mongo.Collection
}

// Open connects to MongoDB and prepares the reports collection
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{
		client:  client,
		reports: client.Database(database).Collection(reportsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Infof("Connected to MongoDB database %s", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create category index: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies MongoDB is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// SaveReport validates and inserts a report document.
// Nothing is written when validation fails.
func (s *Store) SaveReport(ctx context.Context, category, description string) (*models.Report, error) {
	c, desc, err := models.ValidateReport(category, description)
	if err != nil {
		return nil, err
	}

	doc := reportDocument{
		ID:          primitive.NewObjectID(),
		Category:    string(c),
		Description: desc,
		// BSON dates hold milliseconds
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.reports.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	return &models.Report{
		ID:          doc.ID.Hex(),
		Category:    c,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// CountByCategory groups reports by category, every category present in the result
func (s *Store) CountByCategory(ctx context.Context) (models.CountSnapshot, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.reports.Aggregate(ctx, pipeline)
	if err != nil {
		return models.CountSnapshot{}, fmt.Errorf("failed to aggregate report counts: %w", err)
	}
	defer cursor.Close(ctx)

	var results []categoryCount
	if err := cursor.All(ctx, &results); err != nil {
		return models.CountSnapshot{}, fmt.Errorf("failed to decode report counts: %w", err)
	}

	return foldCounts(results), nil
}

func foldCounts(results []categoryCount) models.CountSnapshot {
	counts := make(map[string]int, len(results))
	for _, r := range results {
		counts[r.Category] += r.Count
	}
	return models.NewCountSnapshot(counts)
}
