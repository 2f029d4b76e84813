package todos

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/internal/repository/docid"
)

type MongoRepository struct {
	coll *mongo.Collection
	// sess is set only on repositories handed out by Transaction.
	sess mongo.Session
}

func NewMongo(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// Transaction runs fn in a session transaction. The server must be a replica
// set member or mongos; a standalone mongod rejects it.
func (r *MongoRepository) Transaction(ctx context.Context, fn func(todosdomain.Repository) error) error {
	if r.sess != nil {
		return fn(r)
	}

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return storeErr(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(mongo.SessionContext) (interface{}, error) {
		return nil, fn(&MongoRepository{coll: r.coll, sess: sess})
	})
	return err
}

func (r *MongoRepository) ListTodoLists(ctx context.Context) iter.Seq2[todosdomain.ListSummary, error] {
	return func(yield func(todosdomain.ListSummary, error) bool) {
		ctx := r.bind(ctx)

		opts := options.Find().
			SetProjection(bson.M{
				fieldName:      1,
				fieldItemCount: bson.M{"$size": "$" + fieldItems},
			}).
			SetSort(bson.D{{Key: fieldName, Value: 1}})

		cursor, err := r.coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			yield(todosdomain.ListSummary{}, storeErr(err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			summary, err := decodeListSummary(cursor.Current)
			if err != nil {
				yield(todosdomain.ListSummary{}, err)
				return
			}
			if !yield(summary, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(todosdomain.ListSummary{}, storeErr(err))
		}
	}
}

func (r *MongoRepository) CreateTodoList(ctx context.Context, name string) (string, error) {
	result, err := r.coll.InsertOne(r.bind(ctx), bson.D{
		{Key: fieldName, Value: name},
		{Key: fieldItems, Value: bson.A{}},
	})
	if err != nil {
		return "", storeErr(err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: inserted id has type %T", todosdomain.ErrSchemaMismatch, result.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *MongoRepository) GetTodoList(ctx context.Context, listID string) (*todosdomain.TodoList, error) {
	oid, err := docid.ParseListID(listID)
	if err != nil {
		return nil, err
	}

	raw, err := r.coll.FindOne(r.bind(ctx), bson.M{fieldID: oid}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, todosdomain.ErrTodoListNotFound
		}
		return nil, storeErr(err)
	}

	list, err := decodeTodoList(raw)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *MongoRepository) DeleteTodoList(ctx context.Context, listID string) (bool, error) {
	oid, err := docid.ParseListID(listID)
	if err != nil {
		return false, err
	}

	result, err := r.coll.DeleteOne(r.bind(ctx), bson.M{fieldID: oid})
	if err != nil {
		return false, storeErr(err)
	}
	return result.DeletedCount == 1, nil
}

func (r *MongoRepository) CreateTodoItem(ctx context.Context, listID, label string) (*todosdomain.TodoList, error) {
	oid, err := docid.ParseListID(listID)
	if err != nil {
		return nil, err
	}

	item := bson.D{
		{Key: fieldItemID, Value: docid.NewItemID()},
		{Key: fieldLabel, Value: label},
		{Key: fieldChecked, Value: false},
	}
	return r.findOneAndUpdate(ctx,
		bson.M{fieldID: oid},
		bson.M{"$push": bson.M{fieldItems: item}},
	)
}

func (r *MongoRepository) SetTodoItemChecked(ctx context.Context, listID, itemID string, checked bool) (*todosdomain.TodoList, error) {
	oid, err := docid.ParseListID(listID)
	if err != nil {
		return nil, err
	}

	return r.findOneAndUpdate(ctx,
		bson.M{fieldID: oid, fieldItems + "." + fieldItemID: itemID},
		bson.M{"$set": bson.M{fieldItems + ".$." + fieldChecked: checked}},
	)
}

func (r *MongoRepository) DeleteTodoItem(ctx context.Context, listID, itemID string) (*todosdomain.TodoList, error) {
	oid, err := docid.ParseListID(listID)
	if err != nil {
		return nil, err
	}

	return r.findOneAndUpdate(ctx,
		bson.M{fieldID: oid},
		bson.M{"$pull": bson.M{fieldItems: bson.M{fieldItemID: itemID}}},
	)
}

// findOneAndUpdate returns the post-image, or nil when the filter matched nothing.
func (r *MongoRepository) findOneAndUpdate(ctx context.Context, filter, update any) (*todosdomain.TodoList, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	raw, err := r.coll.FindOneAndUpdate(r.bind(ctx), filter, update, opts).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeErr(err)
	}

	list, err := decodeTodoList(raw)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *MongoRepository) bind(ctx context.Context) context.Context {
	if r.sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, r.sess)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", todosdomain.ErrStoreUnavailable, err)
}
