package repository

import (
	"context"
	"time"

	"vecinosml-pc5/internal/cf"
	"vecinosml-pc5/internal/db"
	"vecinosml-pc5/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{col: db.DB().Collection("ratings")}
}

func (r *RatingRepository) UpsertRating(ctx context.Context, userID, movieID int, rating float64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"userId": userID, "movieId": movieID},
		bson.M{"$set": bson.M{
			"rating": rating,
			// guardamos epoch (int64)
			"timestamp": time.Now().Unix(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *RatingRepository) GetOne(ctx context.Context, userID, movieID int) (*models.RatingDoc, error) {
	var doc models.RatingDoc
	err := r.col.FindOne(ctx, bson.M{"userId": userID, "movieId": movieID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// helpers de casteo seguro: mongo puede devolver int32/int64/float64
func asInt(v any) int {
	switch x := v.(type) {
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

// findPageOpts arma la paginación: limit <= 0 significa sin tope, no se
// setea Limit en absoluto.
func findPageOpts(limit, offset int) *options.FindOptions {
	opts := options.Find().SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// GetByUser pagina los ratings de un usuario. limit <= 0 trae todo.
func (r *RatingRepository) GetByUser(ctx context.Context, userID, limit, offset int) ([]models.RatingDoc, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, findPageOpts(limit, offset))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RatingDoc
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}

		out = append(out, models.RatingDoc{
			UserID:    asInt(raw["userId"]),
			MovieID:   asInt(raw["movieId"]),
			Rating:    asFloat64(raw["rating"]),
			Timestamp: asInt64(raw["timestamp"]),
		})
	}
	return out, cur.Err()
}

// GetAllByUser trae el historial completo, sin tope: de acá salen el
// conjunto "ya calificadas" y los gustos de cada vecino, y truncar
// cualquiera de los dos distorsiona las recomendaciones.
func (r *RatingRepository) GetAllByUser(ctx context.Context, userID int) ([]models.RatingDoc, error) {
	return r.GetByUser(ctx, userID, 0, 0)
}

// GetAllRecords trae la colección completa como registros crudos para el
// pipeline. Cursor con batch grande: son cientos de miles de docs.
func (r *RatingRepository) GetAllRecords(ctx context.Context) ([]cf.RatingRecord, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetBatchSize(10000))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []cf.RatingRecord
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, cf.RatingRecord{
			UserID:  asInt(raw["userId"]),
			MovieID: asInt(raw["movieId"]),
			Rating:  asFloat64(raw["rating"]),
		})
	}
	return out, cur.Err()
}

func (r *RatingRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// CountDistinctUsers devuelve cuántos usuarios tienen al menos un rating.
func (r *RatingRepository) CountDistinctUsers(ctx context.Context) (int64, error) {
	ids, err := r.col.Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

// CountActiveUsers cuenta usuarios con estrictamente más de lowerBound
// ratings (el mismo corte que aplica el Activity Filter).
func (r *RatingRepository) CountActiveUsers(ctx context.Context, lowerBound int) (int64, error) {
	pipeline := bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$userId"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "n", Value: bson.D{{Key: "$gt", Value: lowerBound}}},
		}}},
		bson.D{{Key: "$count", Value: "active"}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	if cur.Next(ctx) {
		var doc struct {
			Active int64 `bson:"active"`
		}
		if err := cur.Decode(&doc); err != nil {
			return 0, err
		}
		return doc.Active, nil
	}
	return 0, cur.Err()
}
