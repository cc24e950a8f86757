package cf

import (
	"math"
	"sort"
	"sync"
)

// Metric identifica la métrica de similitud entre usuarios.
type Metric string

const (
	MetricPearson   Metric = "pearson"
	MetricEuclidean Metric = "euclidean"
)

// Score es un valor de similitud etiquetado. Cuando dos usuarios no tienen
// películas en común (o la varianza es cero) el resultado es indefinido y
// se marca explícitamente, nunca se propaga un NaN que luego se confunda
// con "muy distinto".
type Score struct {
	Value   float64
	Defined bool
}

var undefined = Score{}

// Neighbor es un vecino con su valor de métrica respecto a un usuario dado.
type Neighbor struct {
	UserID int
	Value  float64
}

// Engine calcula similitudes de a pares sobre los usuarios del ActivityMap
// filtrado. Es el centro de costo O(n²) de todo el pipeline.
type Engine struct {
	m     *Matrix
	act   ActivityMap
	users []int // ids ordenados ascendente, para recorridos deterministas
}

func NewEngine(m *Matrix, act ActivityMap) *Engine {
	users := make([]int, 0, len(act))
	for u := range act {
		users = append(users, u)
	}
	sort.Ints(users)
	return &Engine{m: m, act: act, users: users}
}

// UserIDs devuelve los usuarios del engine en orden ascendente.
func (e *Engine) UserIDs() []int { return e.users }

// common junta los ratings de ambos usuarios sobre la intersección de
// películas calificadas, en orden ascendente de movieId. El orden fijo
// importa: la suma en coma flotante no es asociativa, y si los vectores
// salieran en orden de iteración de map la métrica cambiaría en el último
// bit entre corridas, rompiendo la simetría exacta y la igualdad
// secuencial/paralelo.
func (e *Engine) common(a, b int) (va, vb []float64) {
	ra := e.m.Row(a)
	rb := e.m.Row(b)

	ids := make([]int, 0, len(ra))
	for mv := range ra {
		if _, ok := rb[mv]; ok {
			ids = append(ids, mv)
		}
	}
	sort.Ints(ids)

	va = make([]float64, 0, len(ids))
	vb = make([]float64, 0, len(ids))
	for _, mv := range ids {
		va = append(va, ra[mv])
		vb = append(vb, rb[mv])
	}
	return va, vb
}

// Pearson calcula la correlación muestral (denominador n−1) sobre la
// intersección de películas. Indefinida si la intersección es vacía o si
// alguno de los dos vectores tiene varianza cero (p.e. intersección de
// tamaño 1, o todos los ratings iguales). Auto-comparación = 1.0 cuando el
// usuario calificó al menos una película.
func (e *Engine) Pearson(a, b int) Score {
	if a == b {
		if len(e.m.Row(a)) == 0 {
			return undefined
		}
		return Score{Value: 1.0, Defined: true}
	}

	va, vb := e.common(a, b)
	n := len(va)
	if n == 0 {
		return undefined
	}

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += va[i]
		sumB += vb[i]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var num, devA, devB float64
	for i := 0; i < n; i++ {
		da := va[i] - meanA
		db := vb[i] - meanB
		num += da * db
		devA += da * da
		devB += db * db
	}

	// varianza muestral cero => división por cero => indefinido
	if devA == 0 || devB == 0 {
		return undefined
	}
	// el factor 1/(n-1) de covarianza y desviaciones se cancela
	return Score{Value: num / math.Sqrt(devA*devB), Defined: true}
}

// Euclidean calcula la distancia euclidiana sobre la intersección de
// películas. Indefinida con intersección vacía (misma señal de "similitud
// inutilizable" que Pearson). Auto-comparación = 0.0.
func (e *Engine) Euclidean(a, b int) Score {
	if a == b {
		if len(e.m.Row(a)) == 0 {
			return undefined
		}
		return Score{Value: 0.0, Defined: true}
	}

	va, vb := e.common(a, b)
	if len(va) == 0 {
		return undefined
	}

	var sum float64
	for i := range va {
		d := va[i] - vb[i]
		sum += d * d
	}
	return Score{Value: math.Sqrt(sum), Defined: true}
}

func (e *Engine) score(metric Metric, a, b int) Score {
	if metric == MetricPearson {
		return e.Pearson(a, b)
	}
	return e.Euclidean(a, b)
}

// ---------------- pares completos ----------------

// pairKey empaqueta un par no ordenado en una sola clave. Asume userIds
// positivos que entran en 32 bits; ids fuera de rango colisionarían, así
// que se corta acá en vez de devolver pares mezclados.
func pairKey(i, j int) uint64 {
	if i > j {
		i, j = j, i
	}
	if i < 0 || j > math.MaxUint32 {
		panic("cf: userId fuera del rango de 32 bits")
	}
	return (uint64(i) << 32) | uint64(j)
}

// PairSet guarda la métrica de cada par no ordenado de usuarios. Se calcula
// una sola vez por corrida y después se consulta como hecho inmutable.
type PairSet struct {
	Metric    Metric
	users     []int
	scores    map[uint64]Score
	Undefined int // pares no ordenados con métrica indefinida
}

// Get devuelve la métrica del par (a, b). Simétrica por construcción.
func (ps *PairSet) Get(a, b int) Score {
	return ps.scores[pairKey(a, b)]
}

// AllPairs calcula la métrica para todos los pares de usuarios del engine,
// secuencialmente. La simetría se explota: cada par no ordenado se calcula
// una sola vez.
func (e *Engine) AllPairs(metric Metric) *PairSet {
	ps := &PairSet{
		Metric: metric,
		users:  e.users,
		scores: make(map[uint64]Score, len(e.users)*(len(e.users)-1)/2),
	}
	for i := 0; i < len(e.users); i++ {
		for j := i + 1; j < len(e.users); j++ {
			s := e.score(metric, e.users[i], e.users[j])
			ps.scores[pairKey(e.users[i], e.users[j])] = s
			if !s.Defined {
				ps.Undefined++
			}
		}
	}
	return ps
}

// AllPairsParallel reparte los pares entre workers con goroutines y
// channels. Cada par es independiente, así que no hay estado compartido
// durante el cálculo; el merge final va con mutex. El resultado es idéntico
// al secuencial.
func (e *Engine) AllPairsParallel(metric Metric, numWorkers int) *PairSet {
	n := len(e.users)
	if numWorkers <= 1 || n < 2 {
		return e.AllPairs(metric)
	}

	ps := &PairSet{
		Metric: metric,
		users:  e.users,
		scores: make(map[uint64]Score, n*(n-1)/2),
	}

	type job struct{ i, j int }
	type result struct {
		i, j int
		s    Score
	}

	total := n * (n - 1) / 2
	buf := numWorkers * 100
	if buf > total {
		buf = total
	}
	jobs := make(chan job, buf)
	results := make(chan result, buf)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				results <- result{jb.i, jb.j, e.score(metric, e.users[jb.i], e.users[jb.j])}
			}
		}()
	}

	go func() {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				jobs <- job{i, j}
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var mu sync.Mutex
	for res := range results {
		mu.Lock()
		ps.scores[pairKey(e.users[res.i], e.users[res.j])] = res.s
		if !res.s.Defined {
			ps.Undefined++
		}
		mu.Unlock()
	}
	return ps
}

// Rows arma, por usuario, su lista de vecinos con métrica definida,
// ordenada ascendente por valor (para distancia: el más cercano primero).
// Empate se rompe por userId ascendente, así el orden es determinista.
func (ps *PairSet) Rows() map[int][]Neighbor {
	rows := make(map[int][]Neighbor, len(ps.users))
	for _, u := range ps.users {
		rows[u] = ps.rowFor(u, 0)
	}
	return rows
}

func (ps *PairSet) rowFor(u, k int) []Neighbor {
	row := make([]Neighbor, 0, len(ps.users)-1)
	for _, v := range ps.users {
		if v == u {
			continue
		}
		if s := ps.Get(u, v); s.Defined {
			row = append(row, Neighbor{UserID: v, Value: s.Value})
		}
	}
	sort.Slice(row, func(i, j int) bool {
		if row[i].Value != row[j].Value {
			return row[i].Value < row[j].Value
		}
		return row[i].UserID < row[j].UserID
	})
	if k > 0 && len(row) > k {
		row = row[:k]
	}
	return row
}

// ---------------- shard para nodos ML ----------------

// ShardStats resume lo que procesó un shard. Los indefinidos se cuentan
// por métrica: correlación puede ser indefinida por varianza cero aunque
// la distancia exista sobre la misma intersección.
type ShardStats struct {
	UsersProcessed int
	PairsComputed  int
	UndefinedCorr  int
	UndefinedDist  int
}

// ShardRows calcula las filas de vecinos solo para los usuarios que le
// tocan a este shard (índice % shards == shardID sobre la lista ordenada),
// cada uno contra todos los demás. k > 0 trunca cada fila a los k vecinos
// más cercanos. Es la unidad de trabajo que reparte el coordinador entre
// nodos ML.
func (e *Engine) ShardRows(metric Metric, shardID, shards, k int) (map[int][]Neighbor, ShardStats) {
	if shards <= 0 {
		shards = 1
	}
	rows := make(map[int][]Neighbor)
	var st ShardStats

	for idx, u := range e.users {
		if idx%shards != shardID {
			continue
		}
		row := make([]Neighbor, 0, len(e.users)-1)
		for _, v := range e.users {
			if v == u {
				continue
			}
			st.PairsComputed++

			// diagnóstico de ambas métricas, fila solo de la pedida
			corr := e.Pearson(u, v)
			dist := e.Euclidean(u, v)
			if !corr.Defined {
				st.UndefinedCorr++
			}
			if !dist.Defined {
				st.UndefinedDist++
			}

			s := dist
			if metric == MetricPearson {
				s = corr
			}
			if !s.Defined {
				continue
			}
			row = append(row, Neighbor{UserID: v, Value: s.Value})
		}
		sort.Slice(row, func(i, j int) bool {
			if row[i].Value != row[j].Value {
				return row[i].Value < row[j].Value
			}
			return row[i].UserID < row[j].UserID
		})
		if k > 0 && len(row) > k {
			row = row[:k]
		}
		rows[u] = row
		st.UsersProcessed++
	}
	return rows, st
}
