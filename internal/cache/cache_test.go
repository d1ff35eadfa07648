package cache

import (
	"testing"

	"github.com/refcheck/refcheck/pkg/models"
)

func TestKeyStability(t *testing.T) {
	a := Key([]byte("var x;"), "cfg")
	b := Key([]byte("var x;"), "cfg")
	if a != b {
		t.Errorf("same input produced different keys: %s vs %s", a, b)
	}
	if Key([]byte("var x;"), "other") == a {
		t.Error("config fingerprint should change the key")
	}
	if Key([]byte("var y;"), "cfg") == a {
		t.Error("source change should change the key")
	}
}

func TestRoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatal(err)
	}

	diags := []models.Diagnostic{{
		Kind:     models.ReassignedConstant,
		Severity: models.SeverityError,
		File:     "a.js",
		Line:     1,
		Name:     "a",
	}}
	key := Key([]byte("const a = 0; a = 1;"), "")
	c.Put(key, diags)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("entry not found after Put")
	}
	if len(got) != 1 || got[0].Kind != models.ReassignedConstant {
		t.Errorf("got %+v", got)
	}
}

func TestEmptyDiagnosticsCached(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("var x; use(x);"), "")
	c.Put(key, nil)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("clean files should be cached too")
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want none", got)
	}
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	c.Put("k", nil)
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache must miss")
	}
}

func TestMiss(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss")
	}
}
