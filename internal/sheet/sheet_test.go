package sheet

import (
	"strings"
	"testing"
)

func TestSetTextClassifiesEdits(t *testing.T) {
	s := New()

	s.SetText("a1", "42")
	c, ok := s.Get("A1")
	if !ok || c.Value != "42" || c.Formula != "" {
		t.Errorf("literal edit: got %+v", c)
	}

	s.SetText("A2", "=A1*2")
	c, ok = s.Get("A2")
	if !ok || c.Formula != "=A1*2" || c.Value != "" {
		t.Errorf("formula edit: got %+v", c)
	}

	// clearing both fields makes the cell behave as absent
	s.SetText("A1", "")
	if _, ok := s.Get("A1"); ok {
		t.Error("cleared cell still present")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	s := New()
	s.SetText("A1", "before")

	snap := s.Snapshot()
	s.SetText("A1", "after")
	s.SetText("B1", "new")

	value, _, ok := snap.Cell("A1")
	if !ok || value != "before" {
		t.Errorf("snapshot saw later write: %q", value)
	}
	if _, _, ok := snap.Cell("B1"); ok {
		t.Error("snapshot saw cell created after it was taken")
	}
}

func TestImportCSV(t *testing.T) {
	s := New()

	rows, cols, err := ImportCSV(s, "name,score\r\nalice,10\nbob,12\n")
	if err != nil {
		t.Fatal(err)
	}
	if rows != 3 || cols != 2 {
		t.Errorf("dimensions = (%d, %d), want (3, 2)", rows, cols)
	}

	tests := map[string]string{
		"A1": "name",
		"B1": "score",
		"A2": "alice",
		"B2": "10",
		"A3": "bob",
		"B3": "12",
	}
	for id, want := range tests {
		c, ok := s.Get(id)
		if !ok || c.Value != want {
			t.Errorf("%s = %+v, want value %q", id, c, want)
		}
	}
}

func TestImportCSVDetectsSemicolons(t *testing.T) {
	s := New()
	if _, _, err := ImportCSV(s, "a;b;c\n1;2;3\n"); err != nil {
		t.Fatal(err)
	}
	if c, _ := s.Get("C2"); c.Value != "3" {
		t.Errorf("C2 = %+v, want 3", c)
	}
}

func TestExportCSV(t *testing.T) {
	s := New()
	s.SetText("A1", "1")
	s.SetText("B2", "=A1*2")

	var out strings.Builder
	err := ExportCSV(&out, s, func(id string) string {
		if id == "B2" {
			return "2"
		}
		c, _ := s.Get(id)
		return c.Value
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "1,\n,2\n"
	if out.String() != want {
		t.Errorf("export = %q, want %q", out.String(), want)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	st, err := OpenStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	s := New()
	s.SetText("A1", "7")
	s.SetText("B1", "=A1+1")

	if err := st.Save(s); err != nil {
		t.Fatal(err)
	}

	loaded, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d cells, want 2", loaded.Len())
	}
	if c, _ := loaded.Get("B1"); c.Formula != "=A1+1" {
		t.Errorf("B1 = %+v", c)
	}

	// saving again replaces instead of appending
	s.SetText("A1", "")
	if err := st.Save(s); err != nil {
		t.Fatal(err)
	}
	loaded, err = st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 1 {
		t.Errorf("after resave loaded %d cells, want 1", loaded.Len())
	}
}
