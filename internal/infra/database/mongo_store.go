package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore maps a database to a mongo database and each collection to a mongo collection.
// With transactions enabled (replica sets only) writes run inside a session transaction;
// otherwise they are applied one after the other as the commit replays them.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	release      func(ctx context.Context) error
}

func NewMongoStore(client *mongo.Client, database string, transactions bool) *MongoStore {
	return &MongoStore{
		client:       client,
		db:           client.Database(database),
		transactions: transactions,
		release:      func(ctx context.Context) error { return client.Disconnect(ctx) },
	}
}

func (s *MongoStore) Database() string { return s.db.Name() }

func (s *MongoStore) FindByID(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{fieldID: id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return outbound.ErrNoDocument
	}
	return err
}

func (s *MongoStore) FindAll(ctx context.Context, collection string, out any) error {
	return s.find(ctx, collection, out, options.Find().SetSort(bson.D{{Key: fieldID, Value: 1}}))
}

// FindAllProjected asks the server for the bson fields of the destination element type only.
func (s *MongoStore) FindAllProjected(ctx context.Context, collection string, out any) error {
	fields, err := projectedFields(out, "bson")
	if err != nil {
		return err
	}
	projection := bson.D{}
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	opts := options.Find().SetProjection(projection).SetSort(bson.D{{Key: fieldID, Value: 1}})
	return s.find(ctx, collection, out, opts)
}

func (s *MongoStore) find(ctx context.Context, collection string, out any, opts *options.FindOptions) error {
	if err := requireSlicePtr(out); err != nil {
		return err
	}
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (s *MongoStore) Begin(ctx context.Context) (outbound.StoreTx, error) {
	if !s.transactions {
		return &mongoTx{store: s}, nil
	}
	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	return &mongoTx{store: s, session: session}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.release(ctx)
}

func (s *MongoStore) EnsureCollections(ctx context.Context, collections ...string) error {
	existing, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}
	for _, c := range collections {
		if have[c] {
			continue
		}
		if err := s.db.CreateCollection(ctx, c); err != nil {
			return fmt.Errorf("create collection %s: %w", c, err)
		}
	}
	return nil
}

type mongoTx struct {
	store   *MongoStore
	session mongo.Session
	done    bool
}

func (t *mongoTx) ctx(ctx context.Context) (context.Context, error) {
	if t.done {
		return nil, outbound.ErrTxDone
	}
	if t.session == nil {
		return ctx, nil
	}
	return mongo.NewSessionContext(ctx, t.session), nil
}

func (t *mongoTx) Insert(ctx context.Context, collection string, docs []entity.Entity) error {
	sctx, err := t.ctx(ctx)
	if err != nil {
		return err
	}
	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = d
	}
	_, err = t.store.db.Collection(collection).InsertMany(sctx, batch)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", outbound.ErrDuplicateID, err)
	}
	return err
}

func (t *mongoTx) Replace(ctx context.Context, collection string, docs []entity.Entity) error {
	sctx, err := t.ctx(ctx)
	if err != nil {
		return err
	}
	models := make([]mongo.WriteModel, len(docs))
	for i, d := range docs {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{fieldID: d.GetID()}).
			SetReplacement(d).
			SetUpsert(true)
	}
	_, err = t.store.db.Collection(collection).BulkWrite(sctx, models)
	return err
}

func (t *mongoTx) Delete(ctx context.Context, collection string, ids []string) error {
	sctx, err := t.ctx(ctx)
	if err != nil {
		return err
	}
	_, err = t.store.db.Collection(collection).DeleteMany(sctx, bson.M{fieldID: bson.M{"$in": ids}})
	return err
}

func (t *mongoTx) Disable(ctx context.Context, collection string, ids []string, audit outbound.Audit) error {
	sctx, err := t.ctx(ctx)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		fieldDisabled:  true,
		fieldUpdatedAt: audit.At,
		fieldUpdatedBy: audit.ActorID,
	}}
	_, err = t.store.db.Collection(collection).UpdateMany(sctx, bson.M{fieldID: bson.M{"$in": ids}}, update)
	return err
}

func (t *mongoTx) Commit(ctx context.Context) error {
	if t.done {
		return outbound.ErrTxDone
	}
	t.done = true
	if t.session == nil {
		return nil
	}
	defer t.session.EndSession(ctx)
	return t.session.CommitTransaction(ctx)
}

// Rollback aborts the session transaction. Without transactions the writes already landed.
func (t *mongoTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.session == nil {
		return nil
	}
	defer t.session.EndSession(ctx)
	return t.session.AbortTransaction(ctx)
}
