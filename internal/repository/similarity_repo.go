package repository

import (
	"context"
	"time"

	"vecinosml-pc5/internal/db"
	"vecinosml-pc5/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SimilarityRepository struct {
	col *mongo.Collection
}

func NewSimilarityRepository() *SimilarityRepository {
	return &SimilarityRepository{col: db.DB().Collection("user_similarities")}
}

// UpsertRow guarda (o pisa) la fila de vecinos de un usuario.
func (r *SimilarityRepository) UpsertRow(ctx context.Context, doc *models.UserSimilarityDoc) error {
	if doc.UpdatedAt == "" {
		doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"userId": doc.UserID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetNeighbors devuelve los vecinos de un usuario, truncando a k.
// found=false cuando no hay fila precalculada para ese usuario.
func (r *SimilarityRepository) GetNeighbors(ctx context.Context, userID, k int) ([]models.UserNeighbor, bool, error) {
	var doc models.UserSimilarityDoc
	err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	neighbors := doc.Neighbors
	if k > 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, true, nil
}

// GetAllRows trae todas las filas precalculadas (para el batch de
// recomendaciones del coordinador).
func (r *SimilarityRepository) GetAllRows(ctx context.Context) ([]models.UserSimilarityDoc, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetBatchSize(1000))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserSimilarityDoc
	for cur.Next(ctx) {
		var doc models.UserSimilarityDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, cur.Err()
}

func (r *SimilarityRepository) CountRows(ctx context.Context, metric string) (int64, error) {
	filter := bson.M{}
	if metric != "" {
		filter["metric"] = metric
	}
	return r.col.CountDocuments(ctx, filter)
}

// DeleteAll limpia la colección antes de un rebuild completo.
func (r *SimilarityRepository) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}
