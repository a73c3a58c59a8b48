package dashboard

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	statisticsCollection = "statistics"
	chartsCollection     = "charts"
	regionsCollection    = "regions"
)

// Reader loads the aggregate collections. They are read-only here.
type Reader interface {
	Statistics(ctx context.Context) ([]Statistic, error)
	Charts(ctx context.Context) ([]Chart, error)
	Regions(ctx context.Context) ([]Region, error)
}

type pointDoc struct {
	Date  string  `bson:"date"`
	Value float64 `bson:"value"`
}

type statisticDoc struct {
	ID    bson.ObjectID `bson:"_id"`
	Title string        `bson:"title"`
	Value string        `bson:"value"`
}

type seriesDoc struct {
	Name   string     `bson:"name"`
	Value  float64    `bson:"value"`
	Values []pointDoc `bson:"values"`
}

type chartDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	ChartType string        `bson:"chart_type"`
	Data      []seriesDoc   `bson:"data"`
}

type regionDoc struct {
	ID     bson.ObjectID `bson:"_id"`
	Name   string        `bson:"name"`
	Values []pointDoc    `bson:"values"`
}

// MongoRepository reads dashboard documents from MongoDB
type MongoRepository struct {
	statistics *mongo.Collection
	charts     *mongo.Collection
	regions    *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		statistics: db.Collection(statisticsCollection),
		charts:     db.Collection(chartsCollection),
		regions:    db.Collection(regionsCollection),
	}
}

func (r *MongoRepository) Statistics(ctx context.Context) ([]Statistic, error) {
	var docs []statisticDoc
	if err := findAll(ctx, r.statistics, &docs); err != nil {
		return nil, err
	}

	out := make([]Statistic, 0, len(docs))
	for _, d := range docs {
		out = append(out, Statistic{ID: d.ID.Hex(), Title: d.Title, Value: d.Value})
	}
	return out, nil
}

func (r *MongoRepository) Charts(ctx context.Context) ([]Chart, error) {
	var docs []chartDoc
	if err := findAll(ctx, r.charts, &docs); err != nil {
		return nil, err
	}

	out := make([]Chart, 0, len(docs))
	for _, d := range docs {
		series := make([]Series, 0, len(d.Data))
		for _, s := range d.Data {
			series = append(series, Series{Name: s.Name, Value: s.Value, Values: toPoints(s.Values)})
		}
		out = append(out, Chart{ID: d.ID.Hex(), ChartType: d.ChartType, Data: series})
	}
	return out, nil
}

func (r *MongoRepository) Regions(ctx context.Context) ([]Region, error) {
	var docs []regionDoc
	if err := findAll(ctx, r.regions, &docs); err != nil {
		return nil, err
	}

	out := make([]Region, 0, len(docs))
	for _, d := range docs {
		out = append(out, Region{ID: d.ID.Hex(), Name: d.Name, Values: toPoints(d.Values)})
	}
	return out, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, out any) error {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return nil
}

func toPoints(docs []pointDoc) []Point {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Point, 0, len(docs))
	for _, p := range docs {
		out = append(out, Point{Date: p.Date, Value: p.Value})
	}
	return out
}
