package cf

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnknownUser distingue "usuario que no existe en el pipeline" de
// "usuario sin recomendaciones" (que es una lista vacía, no un error).
var ErrUnknownUser = errors.New("user not present in filtered activity map")

const (
	// DefaultLikeThreshold: rating mínimo para considerar que a un
	// usuario "le gustó" una película.
	DefaultLikeThreshold = 7.0
	// DefaultNumRecs: cuota de recomendaciones por usuario.
	DefaultNumRecs = 10
)

// Recommender recorre los vecinos más cercanos de un usuario (distancia
// euclidiana ascendente) juntando películas que a ellos les gustaron y que
// el usuario todavía no vio.
type Recommender struct {
	m    *Matrix
	act  ActivityMap
	rows map[int][]Neighbor // por usuario: vecinos con distancia definida, ascendente

	// LikeThreshold ajusta el umbral de "le gustó"; 0 usa el default.
	LikeThreshold float64
}

// NewRecommender arma el recommender desde un PairSet euclidiano completo.
func NewRecommender(m *Matrix, act ActivityMap, dists *PairSet) *Recommender {
	return &Recommender{m: m, act: act, rows: dists.Rows()}
}

// NewRecommenderFromRows arma el recommender desde filas de vecinos ya
// calculadas (p.e. las que los nodos ML persistieron en Mongo).
func NewRecommenderFromRows(m *Matrix, act ActivityMap, rows map[int][]Neighbor) *Recommender {
	return &Recommender{m: m, act: act, rows: rows}
}

// ClosestNeighbors devuelve los demás usuarios ordenados por distancia
// ascendente al usuario dado. Los pares con distancia indefinida quedan
// afuera del orden, no en una posición arbitraria. Empates por userId
// ascendente.
func (r *Recommender) ClosestNeighbors(user int) ([]Neighbor, error) {
	if _, ok := r.act[user]; !ok {
		return nil, ErrUnknownUser
	}
	return r.rows[user], nil
}

// LikedMovies devuelve el conjunto de películas que el usuario calificó con
// minRating o más. Vacío si no hay ninguna que califique.
func (r *Recommender) LikedMovies(user int, minRating float64) map[int]struct{} {
	liked := make(map[int]struct{})
	for mv, rating := range r.m.Row(user) {
		if rating >= minRating {
			liked[mv] = struct{}{}
		}
	}
	return liked
}

// MovieNames traduce ids a nombres usando el catálogo. Ids sin entrada en
// el catálogo se devuelven aparte, nunca se inventa un nombre.
func MovieNames(ids []int, catalog map[int]string) (names []string, missing []int) {
	for _, id := range ids {
		if name, ok := catalog[id]; ok {
			names = append(names, name)
		} else {
			missing = append(missing, id)
		}
	}
	return names, missing
}

// MakeRecommendations recorre los vecinos en orden juntando películas que
// les gustaron (rating >= umbral), que el usuario no calificó y que
// no se agregaron ya, hasta llenar la cuota o agotar vecinos. Una lista
// corta o vacía es el comportamiento documentado para usuarios fríos, no
// un error.
func (r *Recommender) MakeRecommendations(user, numRecs int) ([]int, error) {
	neighbors, err := r.ClosestNeighbors(user)
	if err != nil {
		return nil, err
	}
	if numRecs <= 0 {
		numRecs = DefaultNumRecs
	}

	threshold := r.LikeThreshold
	if threshold == 0 {
		threshold = DefaultLikeThreshold
	}

	rated := r.act[user]
	seen := make(map[int]struct{})
	recs := make([]int, 0, numRecs)

	for _, nb := range neighbors {
		liked := r.LikedMovies(nb.UserID, threshold)

		// orden ascendente por movieId dentro de cada vecino, para que
		// el resultado sea determinista
		candidates := make([]int, 0, len(liked))
		for mv := range liked {
			if _, ya := rated[mv]; ya {
				continue
			}
			if _, ya := seen[mv]; ya {
				continue
			}
			candidates = append(candidates, mv)
		}
		sort.Ints(candidates)

		for _, mv := range candidates {
			seen[mv] = struct{}{}
			recs = append(recs, mv)
			if len(recs) == numRecs {
				return recs, nil
			}
		}
	}
	return recs, nil
}

// AllRecommendations aplica MakeRecommendations a cada usuario del
// ActivityMap filtrado, repartido entre workers. Cada usuario es
// independiente, así que no hay estado mutable compartido más allá del
// merge final. El resultado por usuario es idéntico al camino individual.
func (r *Recommender) AllRecommendations(numRecs, numWorkers int) (map[int][]int, error) {
	users := make([]int, 0, len(r.act))
	for u := range r.act {
		users = append(users, u)
	}
	sort.Ints(users)

	if numWorkers <= 0 {
		numWorkers = 1
	}

	out := make(map[int][]int, len(users))
	jobs := make(chan int, len(users))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				recs, err := r.MakeRecommendations(u, numRecs)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					out[u] = recs
				}
				mu.Unlock()
			}
		}()
	}

	for _, u := range users {
		jobs <- u
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// RecStats son los conteos de diagnóstico sobre una corrida batch.
type RecStats struct {
	Users           int `json:"users"`
	UsersNoRecs     int `json:"usersNoRecs"`
	UsersUnderQuota int `json:"usersUnderQuota"`
}

// Diagnose cuenta usuarios sin recomendaciones y usuarios que quedaron por
// debajo de la cuota pedida.
func Diagnose(recs map[int][]int, numRecs int) RecStats {
	st := RecStats{Users: len(recs)}
	for _, list := range recs {
		if len(list) == 0 {
			st.UsersNoRecs++
		}
		if len(list) < numRecs {
			st.UsersUnderQuota++
		}
	}
	return st
}
