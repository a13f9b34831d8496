package archive

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nse_screener_backend/services/indicator"
	"nse_screener_backend/services/marketdata"
)

const (
	mongoDBName         = "nse_screener"
	snapshotsCollection = "snapshots"
	connectTimeout      = 10 * time.Second
)

// MongoArchiver keeps a history of refresh results in MongoDB Atlas.
// It is optional: an empty URI disables archiving entirely, and a
// failed connection degrades to a no-op with a logged warning.
type MongoArchiver struct {
	uri         string
	mu          sync.RWMutex
	client      *mongo.Client
	database    *mongo.Database
	isConnected bool
}

// ArchivedSnapshot is the document stored per trading day.
type ArchivedSnapshot struct {
	ID               string              `bson:"_id"` // snapshot date, YYYY-MM-DD
	ArchivedAt       time.Time           `bson:"archived_at"`
	Symbols          int                 `bson:"symbols"`
	Rows             int                 `bson:"rows"`
	BenchmarkMissing bool                `bson:"benchmark_missing"`
	Buckets          map[string][]string `bson:"buckets"` // label -> passing symbols
}

// NewMongoArchiver builds an archiver; Connect must be called before use.
func NewMongoArchiver(uri string) *MongoArchiver {
	return &MongoArchiver{uri: uri}
}

// Enabled reports whether a URI was configured.
func (a *MongoArchiver) Enabled() bool {
	return a.uri != ""
}

// Connect establishes the MongoDB connection. Calling it without a
// configured URI is a no-op.
func (a *MongoArchiver) Connect(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	a.mu.Lock()
	a.client = client
	a.database = client.Database(mongoDBName)
	a.isConnected = true
	a.mu.Unlock()

	log.Println("MongoDB archive connected")
	return nil
}

// Close disconnects from MongoDB.
func (a *MongoArchiver) Close(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			log.Printf("MongoDB disconnect error: %v", err)
		}
		a.client = nil
		a.isConnected = false
	}
}

// ArchiveSnapshot upserts one refresh result, keyed by the snapshot's
// trading date so re-running a refresh replaces the same document.
func (a *MongoArchiver) ArchiveSnapshot(ctx context.Context, summary marketdata.Summary, snapshot []indicator.Row, buckets map[string][]indicator.Row) error {
	a.mu.RLock()
	connected := a.isConnected
	db := a.database
	a.mu.RUnlock()
	if !connected {
		return nil
	}

	tradingDate := ""
	for _, r := range snapshot {
		d := r.Date.Format("2006-01-02")
		if d > tradingDate {
			tradingDate = d
		}
	}
	if tradingDate == "" {
		return nil
	}

	bucketSymbols := make(map[string][]string, len(buckets))
	for label, rows := range buckets {
		symbols := make([]string, len(rows))
		for i, r := range rows {
			symbols[i] = r.Symbol
		}
		bucketSymbols[label] = symbols
	}

	doc := ArchivedSnapshot{
		ID:               tradingDate,
		ArchivedAt:       time.Now(),
		Symbols:          summary.Symbols,
		Rows:             summary.Rows,
		BenchmarkMissing: summary.BenchmarkMissing,
		Buckets:          bucketSymbols,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := db.Collection(snapshotsCollection).
		ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}

	log.Printf("Archived snapshot %s (%d symbols)", tradingDate, summary.Symbols)
	return nil
}
