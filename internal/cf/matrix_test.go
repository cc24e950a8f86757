package cf

import "testing"

func TestBuildMatrixSparse(t *testing.T) {
	records := []RatingRecord{
		{UserID: 1, MovieID: 10, Rating: 8},
		{UserID: 1, MovieID: 20, Rating: 6},
		{UserID: 2, MovieID: 10, Rating: 7},
	}
	m, rep := BuildMatrix(records)

	if rep.Accepted != 3 || rep.Malformed != 0 || rep.Duplicates != 0 {
		t.Fatalf("reporte inesperado: %+v", rep)
	}
	if m.Users() != 2 {
		t.Fatalf("Users() = %d, esperaba 2", m.Users())
	}
	if m.Movies() != 2 {
		t.Fatalf("Movies() = %d, esperaba 2", m.Movies())
	}

	if r, ok := m.Rating(1, 10); !ok || r != 8 {
		t.Errorf("Rating(1,10) = %v,%v", r, ok)
	}
	// celda ausente significa "no calificó", no cero
	if _, ok := m.Rating(2, 20); ok {
		t.Error("Rating(2,20) no debería existir")
	}
}

func TestBuildMatrixRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		rec  RatingRecord
	}{
		{"user id cero", RatingRecord{UserID: 0, MovieID: 1, Rating: 5}},
		{"movie id negativo", RatingRecord{UserID: 1, MovieID: -3, Rating: 5}},
		{"rating bajo la escala", RatingRecord{UserID: 1, MovieID: 1, Rating: 0}},
		{"rating sobre la escala", RatingRecord{UserID: 1, MovieID: 1, Rating: 11}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, rep := BuildMatrix([]RatingRecord{tc.rec})
			if rep.Malformed != 1 || rep.Accepted != 0 {
				t.Errorf("reporte = %+v, esperaba 1 malformado", rep)
			}
			if m.Users() != 0 {
				t.Errorf("la fila malformada no debería entrar a la matriz")
			}
		})
	}
}

func TestBuildMatrixCountsDuplicates(t *testing.T) {
	records := []RatingRecord{
		{UserID: 1, MovieID: 10, Rating: 8},
		{UserID: 1, MovieID: 10, Rating: 3}, // duplicado: gana el primero
	}
	m, rep := BuildMatrix(records)

	if rep.Duplicates != 1 || rep.Accepted != 1 {
		t.Fatalf("reporte = %+v", rep)
	}
	if r, _ := m.Rating(1, 10); r != 8 {
		t.Errorf("Rating(1,10) = %v, el duplicado pisó al original", r)
	}
}
