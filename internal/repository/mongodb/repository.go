package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
)

const (
	simulationsCollection    = "feeding_simulations"
	engineVersionsCollection = "engine_versions"
)

// MongoDBRepository stores simulations and engine versions in MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository creates a new MongoDB repository and ensures its indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(simulationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create simulation indexes: %w", err)
	}
	return nil
}

// SaveSimulation inserts a new simulation record.
func (r *MongoDBRepository) SaveSimulation(ctx context.Context, sim models.Simulation) error {
	_, err := r.db.Collection(simulationsCollection).InsertOne(ctx, sim)
	if err != nil {
		return fmt.Errorf("failed to insert simulation: %w", err)
	}
	r.logger.Debug("simulation stored", zap.String("id", sim.ID), zap.String("user_id", sim.UserID))
	return nil
}

// ListSimulations returns a user's simulations, newest first.
func (r *MongoDBRepository) ListSimulations(ctx context.Context, userID string) ([]models.Simulation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.db.Collection(simulationsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulations: %w", err)
	}
	defer cursor.Close(ctx)

	sims := make([]models.Simulation, 0)
	if err := cursor.All(ctx, &sims); err != nil {
		return nil, fmt.Errorf("failed to decode simulations: %w", err)
	}
	return sims, nil
}

// GetSimulation loads one simulation owned by userID.
func (r *MongoDBRepository) GetSimulation(ctx context.Context, userID, id string) (models.Simulation, error) {
	var sim models.Simulation
	err := r.db.Collection(simulationsCollection).FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&sim)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Simulation{}, models.ErrSimulationNotFound
	}
	if err != nil {
		return models.Simulation{}, fmt.Errorf("failed to load simulation %s: %w", id, err)
	}
	return sim, nil
}

// DeleteSimulation removes one simulation owned by userID.
func (r *MongoDBRepository) DeleteSimulation(ctx context.Context, userID, id string) error {
	res, err := r.db.Collection(simulationsCollection).DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete simulation %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrSimulationNotFound
	}
	return nil
}

// DeleteSimulationsBefore removes every simulation dated before cutoff.
func (r *MongoDBRepository) DeleteSimulationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.Collection(simulationsCollection).DeleteMany(ctx, bson.M{"date": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge simulations: %w", err)
	}
	return res.DeletedCount, nil
}

// RegisterEngineVersion upserts the engine revision. An existing version keeps its
// creation date; a changed logic hash under the same version is logged.
func (r *MongoDBRepository) RegisterEngineVersion(ctx context.Context, version models.EngineVersion) error {
	coll := r.db.Collection(engineVersionsCollection)

	var existing models.EngineVersion
	err := coll.FindOne(ctx, bson.M{"_id": version.Version}).Decode(&existing)
	switch {
	case err == nil:
		if existing.LogicHash != version.LogicHash {
			r.logger.Warn("engine tables changed without a version bump",
				zap.String("version", version.Version),
				zap.String("stored_hash", existing.LogicHash),
				zap.String("current_hash", version.LogicHash))
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("failed to load engine version: %w", err)
	}

	update := bson.M{
		"$set":         bson.M{"logic_hash": version.LogicHash, "status": version.Status},
		"$setOnInsert": bson.M{"created_at": version.CreatedAt},
	}
	if _, err := coll.UpdateOne(ctx, bson.M{"_id": version.Version}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to register engine version: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
