package service

import "testing"

func TestCacheKey(t *testing.T) {
	got := cacheKey(RecRequest{UserID: 42, K: 10})
	want := "rec:user:42:k:10"
	if got != want {
		t.Errorf("cacheKey = %q, quiero %q", got, want)
	}

	// refresh no cambia la llave: decide si se lee el cache, no dónde se escribe
	conRefresh := cacheKey(RecRequest{UserID: 42, K: 10, Refresh: true})
	if conRefresh != want {
		t.Errorf("cacheKey con refresh = %q, quiero %q", conRefresh, want)
	}
}

func TestClampK(t *testing.T) {
	s := &RecommendService{defaultK: 10}

	cases := []struct {
		name string
		in   int
		want int
	}{
		{"cero usa el default", 0, 10},
		{"negativo usa el default", -3, 10},
		{"dentro de rango pasa igual", 25, 25},
		{"por encima del máximo se recorta", 500, MaxK},
		{"exactamente el máximo", MaxK, MaxK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := s.clampK(c.in); got != c.want {
				t.Errorf("clampK(%d) = %d, quiero %d", c.in, got, c.want)
			}
		})
	}
}
