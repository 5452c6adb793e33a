package mongodb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/battlelens/battlelens/internal/db"
	"github.com/battlelens/battlelens/internal/models"
)

const collBattles = "battles"

// Store implements the HistoryStore interface for MongoDB
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	config   *db.Config
}

// New creates a new MongoDB history store
func New(config *db.Config) (*Store, error) {
	return &Store{
		config: config,
	}, nil
}

// Connect establishes connection to MongoDB
func (s *Store) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(s.config.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s.client = client
	s.database = client.Database(s.config.Database)

	if err := s.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (s *Store) Disconnect(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.client.Ping(ctx, nil)
}

func (s *Store) createIndexes(ctx context.Context) error {
	battleIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "date", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "outcome", Value: 1},
				{Key: "date", Value: -1},
			},
		},
	}

	_, err := s.database.Collection(collBattles).Indexes().CreateMany(ctx, battleIndexes)
	if err != nil {
		return fmt.Errorf("failed to create battle indexes: %w", err)
	}
	return nil
}

// SaveEntry persists one battle and evicts the oldest past the cap
func (s *Store) SaveEntry(ctx context.Context, entry *models.HistoryEntry) error {
	doc := bson.M{
		"_id":              entry.ID,
		"date":             entry.Date,
		"outcome":          entry.Outcome,
		"opponent":         entry.Opponent,
		"battle_type":      entry.BattleType,
		"damage_dealt":     entry.DamageDealt,
		"damage_received":  entry.DamageReceived,
		"enemy_killed":     entry.EnemyKilled,
		"screenshot_count": entry.ScreenshotCount,
	}

	if entry.Analysis != nil {
		data, err := json.Marshal(entry.Analysis)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
		doc["analysis"] = string(data)
	}

	if _, err := s.database.Collection(collBattles).InsertOne(ctx, doc); err != nil {
		return err
	}

	return s.evictOldest(ctx)
}

// evictOldest removes battles beyond the cap, oldest first
func (s *Store) evictOldest(ctx context.Context) error {
	coll := s.database.Collection(collBattles)

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(int64(db.MaxEntries)).
		SetProjection(bson.M{"_id": 1})

	cursor, err := coll.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var ids []interface{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		ids = append(ids, doc["_id"])
	}
	if len(ids) == 0 {
		return nil
	}

	_, err = coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// GetEntry retrieves a battle by ID
func (s *Store) GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var doc bson.M
	err := s.database.Collection(collBattles).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("battle not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return decodeEntry(doc)
}

// ListEntries returns up to limit battles, most recent first
func (s *Store) ListEntries(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 || limit > db.MaxEntries {
		limit = db.MaxEntries
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.database.Collection(collBattles).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.HistoryEntry
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := decodeEntry(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}

// DeleteEntry removes a battle by ID
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	result, err := s.database.Collection(collBattles).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("battle not found: %s", id)
	}
	return nil
}

// ClearEntries removes all battles
func (s *Store) ClearEntries(ctx context.Context) (int, error) {
	result, err := s.database.Collection(collBattles).DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(result.DeletedCount), nil
}

// Stats aggregates the stored history
func (s *Store) Stats(ctx context.Context) (*models.HistoryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"total":        bson.M{"$sum": 1},
			"wins":         bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$outcome", "Victory"}}, 1, 0}}},
			"total_damage": bson.M{"$sum": "$damage_dealt"},
			"total_kills":  bson.M{"$sum": "$enemy_killed"},
		}}},
	}

	cursor, err := s.database.Collection(collBattles).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := &models.HistoryStats{}
	if cursor.Next(ctx) {
		var doc struct {
			Total       int     `bson:"total"`
			Wins        int     `bson:"wins"`
			TotalDamage float64 `bson:"total_damage"`
			TotalKills  int64   `bson:"total_kills"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		stats.TotalBattles = doc.Total
		stats.Wins = doc.Wins
		stats.TotalDamageDealt = doc.TotalDamage
		stats.TotalKills = doc.TotalKills
	}

	if stats.TotalBattles > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalBattles) * 100
	}
	return stats, nil
}

func decodeEntry(doc bson.M) (*models.HistoryEntry, error) {
	entry := &models.HistoryEntry{
		Outcome:    getString(doc, "outcome"),
		Opponent:   getString(doc, "opponent"),
		BattleType: getString(doc, "battle_type"),
	}

	if id, ok := doc["_id"].(string); ok {
		entry.ID = id
	}
	if date, ok := doc["date"].(primitive.DateTime); ok {
		entry.Date = date.Time()
	}
	if dealt, ok := doc["damage_dealt"].(float64); ok {
		entry.DamageDealt = dealt
	}
	if received, ok := doc["damage_received"].(float64); ok {
		entry.DamageReceived = received
	}
	switch killed := doc["enemy_killed"].(type) {
	case int64:
		entry.EnemyKilled = killed
	case int32:
		entry.EnemyKilled = int64(killed)
	}
	switch count := doc["screenshot_count"].(type) {
	case int64:
		entry.ScreenshotCount = int(count)
	case int32:
		entry.ScreenshotCount = int(count)
	}

	if analysisJSON, ok := doc["analysis"].(string); ok && analysisJSON != "" {
		var analysis models.AnalysisResult
		if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		entry.Analysis = &analysis
	}
	return entry, nil
}

func getString(doc bson.M, key string) string {
	if value, ok := doc[key].(string); ok {
		return value
	}
	return ""
}
