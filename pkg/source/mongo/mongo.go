// Package mongo stores scene graph snapshots in MongoDB.
//
// Each graph is one document in the collection:
//
//	{_id: "<name>", graph: <scenegraph.Document>, updated_at: <time>}
//
// Symbol node ids fit in a signed 64-bit integer, so they are stored as
// plain BSON int64 values.
package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// Defaults for Connect.
const (
	DefaultDatabase   = "dsgviz"
	DefaultCollection = "graphs"
)

// Options configures Connect.
type Options struct {
	Database   string
	Collection string

	// ConnectAttempts bounds the initial ping retries.
	ConnectAttempts int
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Database == "" {
		o.Database = DefaultDatabase
	}
	if o.Collection == "" {
		o.Collection = DefaultCollection
	}
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 3
	}
}

// Store reads and writes graph snapshots.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type record struct {
	Name      string              `bson:"_id"`
	Graph     scenegraph.Document `bson:"graph"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

// Connect opens a client for uri and pings the server.
func Connect(ctx context.Context, uri string, opts Options) (*Store, error) {
	opts.SetDefaults()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidEndpoint, err, "mongodb client")
	}

	err = errors.RetryWithBackoff(ctx, opts.ConnectAttempts, 500*time.Millisecond, func() error {
		return errors.Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "connect mongodb")
	}
	return &Store{client: client, coll: client.Database(opts.Database).Collection(opts.Collection)}, nil
}

// New wraps an existing collection. Close does not disconnect its client.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Load returns the graph stored under name.
func (s *Store) Load(ctx context.Context, name string) (*scenegraph.Graph, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "load graph %q", name)
	}
	g, err := scenegraph.FromDocument(rec.Graph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph %q", name)
	}
	return g, nil
}

// Save stores g under name, replacing any previous snapshot.
func (s *Store) Save(ctx context.Context, name string, g *scenegraph.Graph) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "graph name cannot be empty")
	}
	rec := record{Name: name, Graph: scenegraph.ToDocument(g), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "save graph %q", name)
	}
	return nil
}

// List returns the stored graph names in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "list graphs")
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var rec struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransport, err, "decode graph name")
		}
		names = append(names, rec.Name)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "list graphs")
	}
	return names, nil
}

// Delete removes the graph stored under name. Missing graphs are not an
// error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "delete graph %q", name)
	}
	return nil
}

// Close disconnects the client if Connect created it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
