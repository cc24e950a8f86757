package models

// UserNeighbor es un vecino precalculado de un usuario: distancia
// euclidiana sobre las películas en común.
type UserNeighbor struct {
	UserID int     `json:"userId" bson:"userId"`
	Dist   float64 `json:"dist" bson:"dist"`
}

// UserSimilarityDoc guarda la fila de vecinos de un usuario, ya ordenada
// por distancia ascendente y truncada a K. Un doc por usuario activo.
type UserSimilarityDoc struct {
	UserID    int            `json:"userId" bson:"userId"`
	Metric    string         `json:"metric" bson:"metric"`
	K         int            `json:"k" bson:"k"`
	Neighbors []UserNeighbor `json:"neighbors" bson:"neighbors"`
	UpdatedAt string         `json:"updatedAt" bson:"updatedAt"`
}
