package repository

import (
	"context"

	"vecinosml-pc5/internal/db"
	"vecinosml-pc5/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MovieRepository struct {
	col *mongo.Collection
}

func NewMovieRepository() *MovieRepository {
	return &MovieRepository{col: db.DB().Collection("movies")}
}

func (r *MovieRepository) GetByID(ctx context.Context, movieID int) (*models.MovieDoc, error) {
	var m models.MovieDoc
	err := r.col.FindOne(ctx, bson.M{"movieId": movieID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &m, err
}

func (r *MovieRepository) GetNextMovieID(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "movieId", Value: -1}})
	var m models.MovieDoc
	err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return m.MovieID + 1, nil
}

func (r *MovieRepository) Insert(ctx context.Context, m *models.MovieDoc) error {
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *MovieRepository) Update(ctx context.Context, m *models.MovieDoc) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"movieId": m.MovieID}, m)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Names resuelve títulos en batch ($in). Los ids sin doc simplemente no
// aparecen en el mapa: el caller decide cómo reportarlos.
func (r *MovieRepository) Names(ctx context.Context, movieIDs []int) (map[int]string, error) {
	if len(movieIDs) == 0 {
		return map[int]string{}, nil
	}

	cur, err := r.col.Find(ctx,
		bson.M{"movieId": bson.M{"$in": movieIDs}},
		options.Find().SetProjection(bson.M{"movieId": 1, "title": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	names := make(map[int]string, len(movieIDs))
	for cur.Next(ctx) {
		var doc struct {
			MovieID int    `bson:"movieId"`
			Title   string `bson:"title"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names[doc.MovieID] = doc.Title
	}
	return names, cur.Err()
}

func (r *MovieRepository) Search(ctx context.Context, q, genre string, limit, offset int) ([]models.MovieDoc, error) {
	filter := bson.M{}
	if q != "" {
		filter["title"] = bson.M{"$regex": q, "$options": "i"}
	}
	if genre != "" {
		// genres es un array, esto busca que lo contenga
		filter["genres"] = genre
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MovieDoc
	for cur.Next(ctx) {
		var m models.MovieDoc
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}

// Top por popularidad (count) o rating promedio.
func (r *MovieRepository) Top(ctx context.Context, metric string, limit int) ([]models.MovieDoc, error) {
	sortField := "ratingStats.count" // popular
	if metric == "rating" {
		sortField = "ratingStats.average"
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MovieDoc
	for cur.Next(ctx) {
		var m models.MovieDoc
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}
