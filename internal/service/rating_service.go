package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"vecinosml-pc5/internal/cache"
	"vecinosml-pc5/internal/cf"
	"vecinosml-pc5/internal/models"
	"vecinosml-pc5/internal/repository"
)

type RatingService struct {
	ratings *repository.RatingRepository
	movies  *repository.MovieRepository
}

func NewRatingService(r *repository.RatingRepository, m *repository.MovieRepository) *RatingService {
	return &RatingService{
		ratings: r,
		movies:  m,
	}
}

func (s *RatingService) AddOrUpdate(ctx context.Context, userID, movieID int, rating float64) error {
	// escala fija 1..10, igual que valida el pipeline al ingerir
	if rating < cf.MinRating || rating > cf.MaxRating {
		return fmt.Errorf("rating %.1f fuera de escala (1..10)", rating)
	}

	// 1) Ver si ya existía un rating previo
	prev, err := s.ratings.GetOne(ctx, userID, movieID)
	if err != nil {
		return err
	}
	existedBefore := prev != nil

	// 2) Upsert del rating (guarda timestamp como epoch)
	if err := s.ratings.UpsertRating(ctx, userID, movieID, rating); err != nil {
		return err
	}

	// 3) Actualizar stats de la película
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return err
	}
	if movie == nil {
		return fmt.Errorf("movie %d no encontrada", movieID)
	}

	if movie.RatingStats == nil {
		movie.RatingStats = &models.RatingStats{}
	}
	rs := movie.RatingStats

	if !existedBefore {
		total := rs.Average*float64(rs.Count) + rating
		rs.Count++
		if rs.Count > 0 {
			rs.Average = total / float64(rs.Count)
		}
	} else {
		total := rs.Average*float64(rs.Count) - prev.Rating + rating
		if rs.Count > 0 {
			rs.Average = total / float64(rs.Count)
		}
		// rs.Count no cambia
	}

	nowStr := time.Now().Format(time.RFC3339)
	rs.LastRatedAt = nowStr
	movie.UpdatedAt = nowStr

	if err := s.movies.Update(ctx, movie); err != nil {
		return err
	}

	// 4) Un rating nuevo invalida las recomendaciones cacheadas del usuario
	if err := cache.DeleteByPattern(ctx, fmt.Sprintf("rec:user:%d:*", userID)); err != nil {
		log.Printf("[ratings] error invalidando cache de user %d: %v", userID, err)
	}
	return nil
}

func (s *RatingService) GetByUser(ctx context.Context, userID, limit, offset int) ([]models.RatingDoc, error) {
	return s.ratings.GetByUser(ctx, userID, limit, offset)
}
