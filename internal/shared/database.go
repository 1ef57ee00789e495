// ============================================================================
// internal/shared/database.go
// MongoDB connection lifecycle and helper utilities
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig(uri, database string) *MongoConfig {
	return &MongoConfig{
		URI:            uri,
		Database:       database,
		ConnectTimeout: 20 * time.Second,
		MaxPoolSize:    50,
		MinPoolSize:    10,
		MaxIdleTime:    30 * time.Second,
	}
}

// ConnectMongoDB establishes connection to MongoDB Atlas/Local with proper
// configuration. The returned database handle is injected into services;
// nothing in the core reaches for a global connection.
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout).
		SetSocketTimeout(30 * time.Second).
		SetHeartbeatInterval(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping MongoDB to verify connection
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Successfully connected to MongoDB (Database: %s)", config.Database)

	db := client.Database(config.Database)
	return client, db, nil
}

// DisconnectMongoDB gracefully closes MongoDB connection
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Successfully disconnected from MongoDB")
	return nil
}

// ============================================================================
// Type Conversion Helpers
// ============================================================================

// GetInt64 safely extracts int64 from BSON value
func GetInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

// GetString safely extracts string from BSON value
func GetString(value interface{}) (string, error) {
	if str, ok := value.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("cannot convert %T to string", value)
}

// GetTime safely extracts time.Time from BSON DateTime
func GetTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time(), nil
	case time.Time:
		return v, nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", value)
	}
}

// ============================================================================
// Timetable Parsing Helpers (for schedule conflict detection)
// ============================================================================

// ParseTimeRange splits "9:00-10:00" into start and end
func ParseTimeRange(timeRange string) (startTime, endTime string) {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// TimesOverlap checks if two time ranges overlap
// Format: "HH:MM" (e.g., "9:00", "10:30")
func TimesOverlap(start1, end1, start2, end2 string) bool {
	s1 := TimeToMinutes(start1)
	e1 := TimeToMinutes(end1)
	s2 := TimeToMinutes(start2)
	e2 := TimeToMinutes(end2)

	// Overlap: (s1 < e2) AND (s2 < e1)
	return s1 < e2 && s2 < e1
}

// TimeToMinutes converts "HH:MM" to minutes since midnight
func TimeToMinutes(timeStr string) int {
	if timeStr == "" {
		return 0
	}

	parts := strings.SplitN(timeStr, ":", 2)
	if len(parts) != 2 {
		return 0
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}

	return hours*60 + minutes
}

// DayIndex orders timetable days for display (M first, S last).
// Unknown days sort after known ones.
func DayIndex(day string) int {
	order := map[string]int{"M": 0, "T": 1, "W": 2, "TH": 3, "F": 4, "S": 5}
	if idx, exists := order[day]; exists {
		return idx
	}
	return 6
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID generates a unique ID with prefix and timestamp
func GenerateID(prefix string) string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("%s_%d", prefix, timestamp)
}

// GenerateAttendanceID generates an attendance event ID
func GenerateAttendanceID() string {
	return GenerateID("ATT")
}

// GenerateMarksID generates a marks record ID
func GenerateMarksID() string {
	return GenerateID("MRK")
}

// GenerateFeeID generates a fee record ID
func GenerateFeeID() string {
	return GenerateID("FEE")
}
