package cf

import (
	"math"
	"testing"
)

const eps = 1e-12

// fixture del escenario de ejemplo: A={10:8, 20:6, 30:9}, B={10:7, 20:6, 30:10}
func smallFixtureEngine(t *testing.T) *Engine {
	m := buildTestMatrix(t, []RatingRecord{
		{1, 10, 8}, {1, 20, 6}, {1, 30, 9},
		{2, 10, 7}, {2, 20, 6}, {2, 30, 10},
	})
	return NewEngine(m, m.Activity())
}

func TestPearsonSmallFixture(t *testing.T) {
	e := smallFixtureEngine(t)

	got := e.Pearson(1, 2)
	if !got.Defined {
		t.Fatal("correlación del ejemplo debería estar definida")
	}
	// Pearson de (8,6,9) y (7,6,10): 51/sqrt(42*78)
	want := 51.0 / math.Sqrt(42.0*78.0)
	if math.Abs(got.Value-want) > eps {
		t.Errorf("Pearson = %.12f, esperaba %.12f", got.Value, want)
	}
}

func TestEuclideanSmallFixture(t *testing.T) {
	e := smallFixtureEngine(t)

	got := e.Euclidean(1, 2)
	if !got.Defined {
		t.Fatal("distancia del ejemplo debería estar definida")
	}
	// sqrt((8-7)² + (6-6)² + (9-10)²) = sqrt(2)
	if math.Abs(got.Value-math.Sqrt2) > eps {
		t.Errorf("Euclidean = %.12f, esperaba sqrt(2)", got.Value)
	}
}

func TestSelfComparison(t *testing.T) {
	e := smallFixtureEngine(t)

	if got := e.Pearson(1, 1); !got.Defined || got.Value != 1.0 {
		t.Errorf("Pearson(u,u) = %+v, esperaba 1.0 definido", got)
	}
	if got := e.Euclidean(1, 1); !got.Defined || got.Value != 0.0 {
		t.Errorf("Euclidean(u,u) = %+v, esperaba 0.0 definido", got)
	}
}

func TestMetricsAreSymmetric(t *testing.T) {
	m := buildTestMatrix(t, []RatingRecord{
		{1, 10, 8}, {1, 20, 6}, {1, 30, 9},
		{2, 10, 7}, {2, 20, 6}, {2, 30, 10},
		{3, 10, 2}, {3, 20, 3}, {3, 40, 9},
	})
	e := NewEngine(m, m.Activity())

	pairs := [][2]int{{1, 2}, {1, 3}, {2, 3}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		if x, y := e.Pearson(a, b), e.Pearson(b, a); x != y {
			t.Errorf("Pearson(%d,%d)=%+v != Pearson(%d,%d)=%+v", a, b, x, b, a, y)
		}
		if x, y := e.Euclidean(a, b), e.Euclidean(b, a); x != y {
			t.Errorf("Euclidean(%d,%d)=%+v != Euclidean(%d,%d)=%+v", a, b, x, b, a, y)
		}
	}
}

func TestUndefinedCases(t *testing.T) {
	m := buildTestMatrix(t, []RatingRecord{
		// 1 y 2 no comparten ninguna película
		{1, 10, 8}, {1, 20, 6},
		{2, 30, 7}, {2, 40, 6},
		// 3 y 4 comparten solo una (varianza muestral cero)
		{3, 50, 8}, {3, 60, 2},
		{4, 50, 5}, {4, 70, 9},
		// 5 y 6 comparten dos pero 5 las calificó igual
		{5, 80, 7}, {5, 90, 7},
		{6, 80, 3}, {6, 90, 9},
	})
	e := NewEngine(m, m.Activity())

	cases := []struct {
		name string
		a, b int
	}{
		{"intersección vacía", 1, 2},
		{"intersección de tamaño 1", 3, 4},
		{"varianza cero", 5, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.Pearson(tc.a, tc.b); got.Defined {
				t.Errorf("Pearson(%d,%d) = %+v, esperaba indefinido", tc.a, tc.b, got)
			}
		})
	}

	// para euclidiana solo la intersección vacía es indefinida
	if got := e.Euclidean(1, 2); got.Defined {
		t.Errorf("Euclidean sin películas en común = %+v, esperaba indefinido", got)
	}
	if got := e.Euclidean(3, 4); !got.Defined {
		t.Error("Euclidean con una película en común sí está definida")
	}
}

func bigFixture(t *testing.T) *Engine {
	t.Helper()
	var records []RatingRecord
	// 12 usuarios con ratings deterministas sobre 8 películas
	for u := 1; u <= 12; u++ {
		for mv := 1; mv <= 8; mv++ {
			if (u+mv)%3 == 0 {
				continue // huecos para que la matriz sea realmente dispersa
			}
			r := float64((u*mv)%10 + 1)
			records = append(records, RatingRecord{UserID: u, MovieID: mv * 10, Rating: r})
		}
	}
	m, _ := BuildMatrix(records)
	return NewEngine(m, m.Activity().FilterActive(DefaultLowerBound))
}

func TestAllPairsParallelMatchesSequential(t *testing.T) {
	e := bigFixture(t)

	for _, metric := range []Metric{MetricPearson, MetricEuclidean} {
		seq := e.AllPairs(metric)
		par := e.AllPairsParallel(metric, 4)

		if seq.Undefined != par.Undefined {
			t.Errorf("%s: indefinidos %d vs %d", metric, seq.Undefined, par.Undefined)
		}
		users := e.UserIDs()
		for i := 0; i < len(users); i++ {
			for j := i + 1; j < len(users); j++ {
				a, b := users[i], users[j]
				if seq.Get(a, b) != par.Get(a, b) {
					t.Fatalf("%s: par (%d,%d) difiere entre secuencial y paralelo", metric, a, b)
				}
			}
		}
	}
}

// La suma flotante no es asociativa: si la intersección se recorriera en
// orden de iteración de map, el último bit del resultado cambiaría entre
// llamadas. Acá se exige igualdad exacta, no con tolerancia.
func TestMetricsBitwiseDeterministic(t *testing.T) {
	e := bigFixture(t)
	users := e.UserIDs()

	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			a, b := users[i], users[j]

			p0 := e.Pearson(a, b)
			d0 := e.Euclidean(a, b)
			for rep := 0; rep < 10; rep++ {
				if p := e.Pearson(a, b); p != p0 {
					t.Fatalf("Pearson(%d,%d) varió entre llamadas: %v != %v", a, b, p, p0)
				}
				if p := e.Pearson(b, a); p != p0 {
					t.Fatalf("Pearson(%d,%d)=%v != Pearson(%d,%d)=%v", b, a, p, a, b, p0)
				}
				if d := e.Euclidean(a, b); d != d0 {
					t.Fatalf("Euclidean(%d,%d) varió entre llamadas: %v != %v", a, b, d, d0)
				}
				if d := e.Euclidean(b, a); d != d0 {
					t.Fatalf("Euclidean(%d,%d)=%v != Euclidean(%d,%d)=%v", b, a, d, a, b, d0)
				}
			}
		}
	}
}

func TestPairKeyRejectsOutOfRangeIDs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("pairKey con id > 32 bits debería entrar en pánico, no aliasar pares")
		}
	}()
	pairKey(1, math.MaxUint32+1)
}

func TestShardRowsPartitionUsers(t *testing.T) {
	e := bigFixture(t)
	const shards = 3

	owned := make(map[int]int)
	var total int
	for s := 0; s < shards; s++ {
		rows, st := e.ShardRows(MetricEuclidean, s, shards, 0)
		if st.UsersProcessed != len(rows) {
			t.Errorf("shard %d: UsersProcessed=%d pero filas=%d", s, st.UsersProcessed, len(rows))
		}
		for u := range rows {
			owned[u]++
		}
		total += len(rows)
	}

	// cada usuario cae en exactamente un shard
	if total != len(e.UserIDs()) {
		t.Fatalf("los shards cubren %d usuarios, esperaba %d", total, len(e.UserIDs()))
	}
	for u, n := range owned {
		if n != 1 {
			t.Errorf("usuario %d apareció en %d shards", u, n)
		}
	}
}

// ShardRows visita cada par no ordenado dos veces (una por cada extremo),
// así que sus conteos por métrica deben ser exactamente el doble de los
// indefinidos de AllPairs, para las dos métricas a la vez.
func TestShardRowsCountUndefinedPerMetric(t *testing.T) {
	m := buildTestMatrix(t, []RatingRecord{
		// 1 y 2 no comparten nada: indefinido para ambas métricas
		{1, 10, 8}, {1, 20, 6},
		{2, 30, 7}, {2, 40, 6},
		// 3 comparte con 1 una sola película: corr indefinida, dist definida
		{3, 10, 5}, {3, 50, 9},
	})
	e := NewEngine(m, m.Activity())

	_, st := e.ShardRows(MetricEuclidean, 0, 1, 0)

	wantCorr := 2 * e.AllPairs(MetricPearson).Undefined
	wantDist := 2 * e.AllPairs(MetricEuclidean).Undefined
	if st.UndefinedCorr != wantCorr {
		t.Errorf("UndefinedCorr = %d, esperaba %d", st.UndefinedCorr, wantCorr)
	}
	if st.UndefinedDist != wantDist {
		t.Errorf("UndefinedDist = %d, esperaba %d", st.UndefinedDist, wantDist)
	}
	if st.UndefinedCorr <= st.UndefinedDist {
		t.Error("el fixture debería tener más correlaciones indefinidas que distancias")
	}
}

func TestShardRowsMatchPairSetRows(t *testing.T) {
	e := bigFixture(t)

	want := e.AllPairs(MetricEuclidean).Rows()
	rows, _ := e.ShardRows(MetricEuclidean, 0, 1, 0)

	for u, wantRow := range want {
		gotRow := rows[u]
		if len(gotRow) != len(wantRow) {
			t.Fatalf("usuario %d: fila de %d vecinos, esperaba %d", u, len(gotRow), len(wantRow))
		}
		for i := range wantRow {
			if gotRow[i] != wantRow[i] {
				t.Fatalf("usuario %d vecino %d: %+v != %+v", u, i, gotRow[i], wantRow[i])
			}
		}
	}
}
