package models

import "time"

// RecItem es una película recomendada, ya resuelta contra el catálogo.
type RecItem struct {
	MovieID int    `bson:"movieId" json:"movieId"`
	Title   string `bson:"title" json:"title"`
}

// Recommendation es el historial que se persiste por corrida.
type Recommendation struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    int       `bson:"userId" json:"userId"`
	Algo      string    `bson:"algo" json:"algo"`
	Metric    string    `bson:"metric" json:"metric"`
	Params    any       `bson:"params" json:"params"`
	Items     []RecItem `bson:"items" json:"items"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
