package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "agristats"

// MongoSource reads the fact tables from MongoDB collections named after the
// tables. Grouped queries run as aggregation pipelines on the server.
type MongoSource struct {
	// Database defaults to "agristats".
	Database string

	client *mongo.Client
}

func (md *MongoSource) Connect(ctx context.Context, dsn string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return err
	}
	md.client = client
	return nil
}

func (md *MongoSource) Close() error {
	if md.client == nil {
		return nil
	}
	return md.client.Disconnect(context.Background())
}

func (md *MongoSource) Query(ctx context.Context, q Query) ([]Row, error) {
	pipeline, err := buildPipeline(q)
	if err != nil {
		return nil, err
	}
	schema, _ := Lookup(q.Table)

	name := md.Database
	if name == "" {
		name = defaultMongoDatabase
	}
	cursor, err := md.client.Database(name).Collection(string(q.Table)).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", q.Table, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", q.Table, err)
	}

	out := make([]Row, 0, len(docs))
	for _, doc := range docs {
		vals := make([]any, 0, len(q.GroupBy)+len(q.Measures))
		for i := range q.GroupBy {
			vals = append(vals, doc[keyField(i)])
		}
		for i := range q.Measures {
			vals = append(vals, doc[measureField(i)])
		}
		row, err := splitRow(q, schema, vals)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func keyField(i int) string     { return fmt.Sprintf("k%d", i) }
func measureField(i int) string { return fmt.Sprintf("m%d", i) }

// buildPipeline renders q as an aggregation pipeline whose output documents
// carry flat fields k0..kn for keys and m0..mn for measures.
func buildPipeline(q Query) (mongo.Pipeline, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var pipeline mongo.Pipeline
	match := bson.D{}
	equal := make(map[string]bool, len(q.Filters))
	for _, f := range q.Filters {
		match = append(match, bson.E{Key: f.Column, Value: f.Value})
		equal[f.Column] = true
	}
	for _, col := range q.NotNull {
		// An equality filter on the column already excludes null.
		if !equal[col] {
			match = append(match, bson.E{Key: col, Value: bson.D{{Key: "$ne", Value: nil}}})
		}
	}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	if q.Aggregate == AggregateNone {
		project := bson.D{{Key: "_id", Value: 0}}
		for i, c := range q.GroupBy {
			project = append(project, bson.E{Key: keyField(i), Value: "$" + c})
		}
		for i, m := range q.Measures {
			project = append(project, bson.E{Key: measureField(i), Value: "$" + m})
		}
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
			bson.D{{Key: "$project", Value: project}},
		)
		return pipeline, nil
	}

	op := "$sum"
	if q.Aggregate == AggregateAvg {
		op = "$avg"
	}

	id := bson.D{}
	project := bson.D{{Key: "_id", Value: 0}}
	sortKeys := bson.D{}
	for i, c := range q.GroupBy {
		id = append(id, bson.E{Key: keyField(i), Value: "$" + c})
		project = append(project, bson.E{Key: keyField(i), Value: "$_id." + keyField(i)})
		sortKeys = append(sortKeys, bson.E{Key: keyField(i), Value: 1})
	}
	group := bson.D{{Key: "_id", Value: id}}
	for i, m := range q.Measures {
		group = append(group, bson.E{Key: measureField(i), Value: bson.D{
			{Key: op, Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + m, 0}}}},
		}})
		project = append(project, bson.E{Key: measureField(i), Value: 1})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: group}},
		bson.D{{Key: "$project", Value: project}},
		bson.D{{Key: "$sort", Value: sortKeys}},
	)
	return pipeline, nil
}
