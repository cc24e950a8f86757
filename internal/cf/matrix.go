package cf

// RatingRecord es un hecho crudo (user, movie, rating) tal como llega del
// ingestor (Mongo o API). Escala fija 1..10.
type RatingRecord struct {
	UserID  int
	MovieID int
	Rating  float64
}

const (
	MinRating = 1.0
	MaxRating = 10.0
)

// IngestReport cuenta lo que se aceptó y lo que se descartó al construir
// la matriz. Nada se descarta en silencio.
type IngestReport struct {
	Total      int `json:"total"`
	Accepted   int `json:"accepted"`
	Malformed  int `json:"malformed"`
	Duplicates int `json:"duplicates"`
}

// Matrix es la matriz usuario×película en representación dispersa:
// celda ausente = "no calificó", nunca cero. Con decenas de miles de
// usuarios una matriz densa no entra en memoria.
type Matrix struct {
	ratings map[int]map[int]float64 // userId -> movieId -> rating
}

// BuildMatrix arma la matriz dispersa desde los registros crudos.
// Filas malformadas (ids no positivos, rating fuera de 1..10) se saltan y
// se cuentan; ante duplicados (user, movie) gana el primero.
func BuildMatrix(records []RatingRecord) (*Matrix, IngestReport) {
	m := &Matrix{ratings: make(map[int]map[int]float64)}
	rep := IngestReport{Total: len(records)}

	for _, rec := range records {
		if rec.UserID <= 0 || rec.MovieID <= 0 || rec.Rating < MinRating || rec.Rating > MaxRating {
			rep.Malformed++
			continue
		}
		row, ok := m.ratings[rec.UserID]
		if !ok {
			row = make(map[int]float64)
			m.ratings[rec.UserID] = row
		}
		if _, dup := row[rec.MovieID]; dup {
			rep.Duplicates++
			continue
		}
		row[rec.MovieID] = rec.Rating
		rep.Accepted++
	}
	return m, rep
}

// Rating devuelve el rating de (user, movie) y si existe la celda.
func (m *Matrix) Rating(userID, movieID int) (float64, bool) {
	r, ok := m.ratings[userID][movieID]
	return r, ok
}

// Row devuelve la fila completa de un usuario (movieId -> rating).
// El mapa devuelto pertenece a la matriz: no mutar.
func (m *Matrix) Row(userID int) map[int]float64 {
	return m.ratings[userID]
}

// Users devuelve la cantidad de usuarios con al menos un rating.
func (m *Matrix) Users() int { return len(m.ratings) }

// Movies devuelve la cantidad de películas distintas con al menos un rating.
func (m *Matrix) Movies() int {
	seen := make(map[int]struct{})
	for _, row := range m.ratings {
		for mv := range row {
			seen[mv] = struct{}{}
		}
	}
	return len(seen)
}
