package dbtypes

import "testing"

type line struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

func TestJSONListValueAndScan(t *testing.T) {
	in := JSONList[line]{{ID: "a", Qty: 2}, {ID: "b", Qty: 0}}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != `[{"id":"a","qty":2},{"id":"b","qty":0}]` {
		t.Fatalf("unexpected encoding %v", v)
	}

	var out JSONList[line]
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestJSONListNilAndEmpty(t *testing.T) {
	var nilList JSONList[string]
	v, err := nilList.Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil list should encode as [], got %v %v", v, err)
	}

	var out JSONList[string]
	if err := out.Scan(nil); err != nil || out == nil || len(out) != 0 {
		t.Fatalf("nil scan should yield empty list, got %#v %v", out, err)
	}
	if err := out.Scan(42); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}
