package cf

import (
	"errors"
	"math"
	"testing"
)

// fixture de recomendación:
//
//	usuario 1: {10:8, 20:6, 30:9}
//	usuario 2: {10:7, 20:6, 30:10}  (vecino más cercano de 1)
//	usuario 3: {10:2, 20:3, 40:9, 50:8}
//	usuario 4: {10:8, 20:8}         (solo 2 películas: filtrado)
func recFixture(t *testing.T) *Recommender {
	t.Helper()
	m := buildTestMatrix(t, []RatingRecord{
		{1, 10, 8}, {1, 20, 6}, {1, 30, 9},
		{2, 10, 7}, {2, 20, 6}, {2, 30, 10},
		{3, 10, 2}, {3, 20, 3}, {3, 40, 9}, {3, 50, 8},
		{4, 10, 8}, {4, 20, 8},
	})
	act := m.Activity().FilterActive(DefaultLowerBound)
	e := NewEngine(m, act)
	return NewRecommender(m, act, e.AllPairs(MetricEuclidean))
}

func TestClosestNeighborsOrder(t *testing.T) {
	r := recFixture(t)

	nbs, err := r.ClosestNeighbors(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(nbs) != 2 {
		t.Fatalf("esperaba 2 vecinos, hay %d: %+v", len(nbs), nbs)
	}
	// d(1,2)=sqrt(2) < d(1,3)=sqrt(45)
	if nbs[0].UserID != 2 || nbs[1].UserID != 3 {
		t.Errorf("orden de vecinos %+v, esperaba [2 3]", nbs)
	}
	if math.Abs(nbs[0].Value-math.Sqrt2) > eps {
		t.Errorf("distancia al vecino 2 = %v", nbs[0].Value)
	}
}

func TestClosestNeighborsExcludesFiltered(t *testing.T) {
	r := recFixture(t)

	// usuario 4 no pasó el filtro de actividad: ni aparece como vecino
	// ni se le puede pedir vecinos
	nbs, _ := r.ClosestNeighbors(1)
	for _, nb := range nbs {
		if nb.UserID == 4 {
			t.Error("usuario filtrado apareció como vecino")
		}
	}
	if _, err := r.ClosestNeighbors(4); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("err = %v, esperaba ErrUnknownUser", err)
	}
}

func TestClosestNeighborsTieBreak(t *testing.T) {
	// 5 y 7 quedan a la misma distancia de 9: desempate por id ascendente
	m := buildTestMatrix(t, []RatingRecord{
		{9, 10, 5}, {9, 20, 5}, {9, 30, 5},
		{7, 10, 6}, {7, 20, 5}, {7, 30, 5},
		{5, 10, 5}, {5, 20, 6}, {5, 30, 5},
	})
	act := m.Activity()
	e := NewEngine(m, act)
	r := NewRecommender(m, act, e.AllPairs(MetricEuclidean))

	nbs, err := r.ClosestNeighbors(9)
	if err != nil {
		t.Fatal(err)
	}
	if len(nbs) != 2 || nbs[0].UserID != 5 || nbs[1].UserID != 7 {
		t.Errorf("vecinos = %+v, esperaba [5 7] por desempate ascendente", nbs)
	}
}

func TestLikedMovies(t *testing.T) {
	r := recFixture(t)

	liked := r.LikedMovies(1, DefaultLikeThreshold)
	if len(liked) != 2 {
		t.Fatalf("liked(1) = %v, esperaba {10, 30}", liked)
	}
	for _, mv := range []int{10, 30} {
		if _, ok := liked[mv]; !ok {
			t.Errorf("falta %d en liked(1)", mv)
		}
	}

	// umbral inalcanzable: conjunto vacío, no error
	if got := r.LikedMovies(1, 99); len(got) != 0 {
		t.Errorf("liked con umbral 99 = %v", got)
	}
}

func TestMovieNames(t *testing.T) {
	catalog := map[int]string{10: "Toy Story", 30: "Heat"}

	names, missing := MovieNames([]int{10, 20, 30}, catalog)
	if len(names) != 2 || names[0] != "Toy Story" || names[1] != "Heat" {
		t.Errorf("names = %v", names)
	}
	if len(missing) != 1 || missing[0] != 20 {
		t.Errorf("missing = %v, el id sin catálogo se reporta, no se inventa", missing)
	}
}

func TestMakeRecommendations(t *testing.T) {
	r := recFixture(t)

	recs, err := r.MakeRecommendations(1, DefaultNumRecs)
	if err != nil {
		t.Fatal(err)
	}
	// al vecino 2 le gustaron {10, 30} pero 1 ya las vio;
	// al vecino 3 le gustaron {40, 50}
	if len(recs) != 2 || recs[0] != 40 || recs[1] != 50 {
		t.Errorf("recs = %v, esperaba [40 50]", recs)
	}

	rated := r.act[1]
	for _, mv := range recs {
		if _, ya := rated[mv]; ya {
			t.Errorf("se recomendó %d, que el usuario ya calificó", mv)
		}
	}
}

func TestMakeRecommendationsQuota(t *testing.T) {
	r := recFixture(t)

	recs, err := r.MakeRecommendations(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0] != 40 {
		t.Errorf("con cuota 1, recs = %v", recs)
	}
}

func TestMakeRecommendationsEmptyWhenNeighborsDislike(t *testing.T) {
	// los vecinos de 1 calificaron todo por debajo del umbral 7
	m := buildTestMatrix(t, []RatingRecord{
		{1, 10, 8}, {1, 20, 6}, {1, 30, 9},
		{2, 10, 5}, {2, 20, 4}, {2, 40, 6},
		{3, 10, 3}, {3, 20, 2}, {3, 50, 5},
	})
	act := m.Activity()
	e := NewEngine(m, act)
	r := NewRecommender(m, act, e.AllPairs(MetricEuclidean))

	recs, err := r.MakeRecommendations(1, DefaultNumRecs)
	if err != nil {
		t.Fatalf("lista vacía no es un error, pero err = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("recs = %v, esperaba vacío", recs)
	}
}

func TestMakeRecommendationsUnknownUser(t *testing.T) {
	r := recFixture(t)
	if _, err := r.MakeRecommendations(99, DefaultNumRecs); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("err = %v, esperaba ErrUnknownUser", err)
	}
}

func TestAllRecommendationsConsistency(t *testing.T) {
	r := recFixture(t)

	all, err := r.AllRecommendations(DefaultNumRecs, 4)
	if err != nil {
		t.Fatal(err)
	}

	// las claves son exactamente el activity map filtrado
	if len(all) != len(r.act) {
		t.Fatalf("all tiene %d usuarios, esperaba %d", len(all), len(r.act))
	}
	if _, ok := all[4]; ok {
		t.Error("usuario filtrado presente en el batch")
	}

	// batch y camino individual devuelven lo mismo
	for u, batch := range all {
		single, err := r.MakeRecommendations(u, DefaultNumRecs)
		if err != nil {
			t.Fatal(err)
		}
		if len(batch) != len(single) {
			t.Fatalf("usuario %d: batch=%v single=%v", u, batch, single)
		}
		for i := range batch {
			if batch[i] != single[i] {
				t.Fatalf("usuario %d: batch=%v single=%v", u, batch, single)
			}
		}
	}
}

func TestDiagnose(t *testing.T) {
	recs := map[int][]int{
		1: {40, 50},
		2: {},
		3: {10, 20, 30},
	}
	st := Diagnose(recs, 3)

	if st.Users != 3 {
		t.Errorf("Users = %d", st.Users)
	}
	if st.UsersNoRecs != 1 {
		t.Errorf("UsersNoRecs = %d", st.UsersNoRecs)
	}
	// bajo cuota incluye al usuario sin recomendaciones
	if st.UsersUnderQuota != 2 {
		t.Errorf("UsersUnderQuota = %d", st.UsersUnderQuota)
	}
}
