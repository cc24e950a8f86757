package repository

import "testing"

func TestFindPageOpts(t *testing.T) {
	// sin tope: Limit no debe setearse, el cursor trae el historial entero
	opts := findPageOpts(0, 0)
	if opts.Limit != nil {
		t.Errorf("limit=0 seteó Limit=%d, esperaba sin límite", *opts.Limit)
	}
	if opts.Skip == nil || *opts.Skip != 0 {
		t.Errorf("Skip = %v, esperaba 0", opts.Skip)
	}

	opts = findPageOpts(-1, 0)
	if opts.Limit != nil {
		t.Errorf("limit negativo seteó Limit=%d, esperaba sin límite", *opts.Limit)
	}

	// con tope: paginación normal
	opts = findPageOpts(50, 100)
	if opts.Limit == nil || *opts.Limit != 50 {
		t.Errorf("Limit = %v, esperaba 50", opts.Limit)
	}
	if opts.Skip == nil || *opts.Skip != 100 {
		t.Errorf("Skip = %v, esperaba 100", opts.Skip)
	}
}

func TestSafeCasts(t *testing.T) {
	if got := asInt(int32(7)); got != 7 {
		t.Errorf("asInt(int32) = %d", got)
	}
	if got := asInt(int64(7)); got != 7 {
		t.Errorf("asInt(int64) = %d", got)
	}
	if got := asInt(7.0); got != 7 {
		t.Errorf("asInt(float64) = %d", got)
	}
	if got := asInt("7"); got != 0 {
		t.Errorf("asInt(string) = %d, esperaba 0", got)
	}
	if got := asFloat64(int32(9)); got != 9.0 {
		t.Errorf("asFloat64(int32) = %v", got)
	}
	if got := asFloat64(nil); got != 0 {
		t.Errorf("asFloat64(nil) = %v, esperaba 0", got)
	}
}
