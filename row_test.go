package tableboard

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewRow(t *testing.T) {
	r, err := NewRow("date", "2024-01-01", "flow", 2.5, "count", 3, "ok", true, "note", nil)
	if err != nil {
		t.Fatalf("NewRow() error = %v", err)
	}

	if got := strings.Join(r.Keys(), ","); got != "date,flow,count,ok,note" {
		t.Errorf("Keys() = %q", got)
	}
	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
	if v, _ := r.Get("count"); v != int64(3) {
		t.Errorf("Get(count) = %#v, want int64(3)", v)
	}
	if v, ok := r.Get("note"); !ok || v != nil {
		t.Errorf("Get(note) = %#v, %v, want nil, true", v, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
	if got := r.Text("flow"); got != "2.5" {
		t.Errorf("Text(flow) = %q, want 2.5", got)
	}
	if got := r.Text("missing"); got != "" {
		t.Errorf("Text(missing) = %q, want empty", got)
	}
}

func TestNewRow_LargeUnsignedValues(t *testing.T) {
	r := MustRow("small", uint64(42), "big", uint64(math.MaxUint64), "word", uint(7))

	if v, _ := r.Get("small"); v != int64(42) {
		t.Errorf("Get(small) = %#v, want int64(42)", v)
	}
	if v, _ := r.Get("big"); v != float64(math.MaxUint64) {
		t.Errorf("Get(big) = %#v, want float64(MaxUint64)", v)
	}
	if v, _ := r.Get("word"); v != int64(7) {
		t.Errorf("Get(word) = %#v, want int64(7)", v)
	}
	if got := r.Text("big"); strings.HasPrefix(got, "-") {
		t.Errorf("Text(big) = %q, want a positive number", got)
	}
}

func TestNewRow_RepeatedKeyKeepsPosition(t *testing.T) {
	r := MustRow("a", 1, "b", 2, "a", 3)

	if got := strings.Join(r.Keys(), ","); got != "a,b" {
		t.Errorf("Keys() = %q, want a,b", got)
	}
	if v, _ := r.Get("a"); v != int64(3) {
		t.Errorf("Get(a) = %v, want 3", v)
	}
}

func TestNewRow_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []any
	}{
		{"odd arguments", []any{"a", 1, "b"}},
		{"non-string key", []any{1, "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRow(tt.args...)
			if !errors.Is(err, ErrInvalidRow) {
				t.Errorf("NewRow() error = %v, want ErrInvalidRow", err)
			}
		})
	}
}

func TestRowFromMap_SortsKeys(t *testing.T) {
	r := RowFromMap(map[string]any{"zeta": 1, "alpha": "a", "mid": 2.0})

	if got := strings.Join(r.Keys(), ","); got != "alpha,mid,zeta" {
		t.Errorf("Keys() = %q", got)
	}
}

func TestRow_KeysIsCopy(t *testing.T) {
	r := MustRow("a", 1, "b", 2)
	keys := r.Keys()
	keys[0] = "changed"

	if r.Keys()[0] != "a" {
		t.Error("modifying Keys() result changed the row")
	}
}

func TestRow_JSONPreservesOrder(t *testing.T) {
	input := `{"zeta": 1, "alpha": 2.5, "nested": {"x": [1, "two"]}, "big": 12345678901234, "null": null}`

	var r Row
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got := strings.Join(r.Keys(), ","); got != "zeta,alpha,nested,big,null" {
		t.Errorf("Keys() = %q", got)
	}
	if v, _ := r.Get("zeta"); v != int64(1) {
		t.Errorf("zeta = %#v, want int64(1)", v)
	}
	if v, _ := r.Get("alpha"); v != 2.5 {
		t.Errorf("alpha = %#v, want 2.5", v)
	}
	if v, _ := r.Get("big"); v != int64(12345678901234) {
		t.Errorf("big = %#v, want int64", v)
	}
	want := map[string]any{"x": []any{int64(1), "two"}}
	if v, _ := r.Get("nested"); !reflect.DeepEqual(v, want) {
		t.Errorf("nested = %#v, want %#v", v, want)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(out); got != `{"zeta":1,"alpha":2.5,"nested":{"x":[1,"two"]},"big":12345678901234,"null":null}` {
		t.Errorf("Marshal() = %s", got)
	}
}

func TestRow_UnmarshalJSONErrors(t *testing.T) {
	for _, input := range []string{`[1, 2]`, `"text"`, `{"a": }`} {
		var r Row
		err := json.Unmarshal([]byte(input), &r)
		if err == nil {
			t.Errorf("Unmarshal(%s) error = nil, want error", input)
		}
	}

	var r Row
	if err := r.UnmarshalJSON([]byte(`[1]`)); !errors.Is(err, ErrInvalidRow) {
		t.Errorf("UnmarshalJSON([1]) error = %v, want ErrInvalidRow", err)
	}
}

func TestRow_YAMLPreservesOrder(t *testing.T) {
	input := `
- date: 2024-01-02
  station: Tyne
  flow: 3
  active: true
  read_at: 2024-01-02T10:30:00Z
`
	var rows []Row
	if err := yaml.Unmarshal([]byte(input), &rows); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	r := rows[0]
	if got := strings.Join(r.Keys(), ","); got != "date,station,flow,active,read_at" {
		t.Errorf("Keys() = %q", got)
	}
	if v, _ := r.Get("date"); v != "2024-01-02" {
		t.Errorf("date = %#v, want date-only string", v)
	}
	if v, _ := r.Get("read_at"); v != "2024-01-02T10:30:00Z" {
		t.Errorf("read_at = %#v, want RFC 3339 string", v)
	}
	if v, _ := r.Get("flow"); v != int64(3) {
		t.Errorf("flow = %#v, want int64(3)", v)
	}
	if v, _ := r.Get("active"); v != true {
		t.Errorf("active = %#v, want true", v)
	}
}

func TestRow_YAMLRejectsNonMapping(t *testing.T) {
	var rows []Row
	err := yaml.Unmarshal([]byte("- just text\n"), &rows)
	if err == nil || !strings.Contains(err.Error(), ErrInvalidRow.Error()) {
		t.Errorf("Unmarshal() error = %v, want invalid row", err)
	}
}
