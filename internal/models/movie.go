package models

// RatingStats se mantiene denormalizado en el doc de película para no
// agregar sobre ratings en cada lectura.
type RatingStats struct {
	Average     float64 `json:"average" bson:"average"`
	Count       int     `json:"count" bson:"count"`
	LastRatedAt string  `json:"lastRatedAt,omitempty" bson:"lastRatedAt,omitempty"`
}

// MovieDoc es el catálogo de películas: el recommender solo necesita
// movieId -> título, el resto es metadata para la API.
type MovieDoc struct {
	MovieID     int          `json:"movieId" bson:"movieId"`
	Title       string       `json:"title" bson:"title"`
	Year        *int         `json:"year,omitempty" bson:"year,omitempty"`
	Genres      []string     `json:"genres" bson:"genres"`
	RatingStats *RatingStats `json:"ratingStats,omitempty" bson:"ratingStats,omitempty"`
	CreatedAt   string       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   string       `json:"updatedAt" bson:"updatedAt"`
}

// Payload para crear una película desde la API admin.
type MovieCreateRequest struct {
	Title  string   `json:"title"` // obligatorio
	Year   *int     `json:"year,omitempty"`
	Genres []string `json:"genres,omitempty"`
}
