package cf

// ActivityMap asocia cada usuario con el conjunto de películas que calificó.
type ActivityMap map[int]map[int]struct{}

// Activity deriva el mapa de actividad completo desde la matriz.
func (m *Matrix) Activity() ActivityMap {
	act := make(ActivityMap, len(m.ratings))
	for u, row := range m.ratings {
		items := make(map[int]struct{}, len(row))
		for mv := range row {
			items[mv] = struct{}{}
		}
		act[u] = items
	}
	return act
}

// FilterActive conserva solo usuarios con estrictamente más de lowerBound
// películas calificadas. Pura y determinista; filtrar dos veces con el mismo
// bound da el mismo resultado.
func (a ActivityMap) FilterActive(lowerBound int) ActivityMap {
	out := make(ActivityMap)
	for u, items := range a {
		if len(items) > lowerBound {
			out[u] = items
		}
	}
	return out
}

// DefaultLowerBound es el mínimo de actividad por defecto (exclusivo).
const DefaultLowerBound = 2
