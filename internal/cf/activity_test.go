package cf

import "testing"

func buildTestMatrix(t *testing.T, records []RatingRecord) *Matrix {
	t.Helper()
	m, rep := BuildMatrix(records)
	if rep.Malformed != 0 || rep.Duplicates != 0 {
		t.Fatalf("fixture con filas descartadas: %+v", rep)
	}
	return m
}

func TestFilterActiveExclusiveBound(t *testing.T) {
	m := buildTestMatrix(t, []RatingRecord{
		{1, 10, 8}, {1, 20, 6}, {1, 30, 9},
		{2, 10, 7}, {2, 20, 6}, // solo 2 películas
	})
	act := m.Activity().FilterActive(DefaultLowerBound)

	if _, ok := act[1]; !ok {
		t.Error("usuario 1 (3 películas) debería quedar")
	}
	// el bound es estricto: con exactamente 2 películas queda afuera
	if _, ok := act[2]; ok {
		t.Error("usuario 2 (2 películas) debería quedar excluido")
	}
}

func TestFilterActiveIdempotent(t *testing.T) {
	m := buildTestMatrix(t, []RatingRecord{
		{1, 10, 8}, {1, 20, 6}, {1, 30, 9},
		{2, 10, 7},
	})
	once := m.Activity().FilterActive(2)
	twice := once.FilterActive(2)

	if len(once) != len(twice) {
		t.Fatalf("filtrar dos veces cambió el tamaño: %d vs %d", len(once), len(twice))
	}
	for u, items := range once {
		if len(twice[u]) != len(items) {
			t.Errorf("usuario %d cambió entre pasadas", u)
		}
	}
}
