package conditions

import (
	"errors"
	"testing"
	"time"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	from := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	coll, err := NewCollection("tammikuu", from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	return coll
}

func TestNewCollection_RejectsEmptyWindow(t *testing.T) {
	at := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := NewCollection("x", at, at); err == nil {
		t.Fatal("expected error for zero-length window")
	}
	if _, err := NewCollection("x", at, at.Add(-time.Hour)); err == nil {
		t.Fatal("expected error for inverted window")
	}
}

func TestCollection_AddAndGet(t *testing.T) {
	coll := newTestCollection(t)
	if err := coll.Add("site", "c1", "s1#a = 1", 4, DefaultRules()); err != nil {
		t.Fatalf("add: %v", err)
	}
	cond, ok := coll.Get("site_c1")
	if !ok {
		t.Fatal("expected condition site_c1")
	}
	if cond.SourceRow != 4 {
		t.Fatalf("expected source row 4, got %d", cond.SourceRow)
	}
	if coll.Len() != 1 {
		t.Fatalf("expected 1 condition, got %d", coll.Len())
	}
}

func TestCollection_DuplicateID(t *testing.T) {
	coll := newTestCollection(t)
	if err := coll.Add("site", "c1", "s1#a = 1", 4, DefaultRules()); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := coll.Add("Site", " C1 ", "s2#b = 2", 5, DefaultRules())
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	var dupErr *DuplicateConditionError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateConditionError, got %T", err)
	}
	if coll.Len() != 1 {
		t.Fatalf("expected duplicate to be skipped, got %d conditions", coll.Len())
	}
	if len(coll.Errors) != 1 || coll.Errors[0].Row != 5 {
		t.Fatalf("expected row error for row 5, got %v", coll.Errors)
	}
}

func TestCollection_BadRowDoesNotBlockOthers(t *testing.T) {
	coll := newTestCollection(t)
	_ = coll.Add("site", "bad", "kitka > 1", 4, DefaultRules())
	if err := coll.Add("site", "good", "s1#a = 1", 5, DefaultRules()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if coll.Len() != 1 {
		t.Fatalf("expected 1 condition, got %d", coll.Len())
	}
	if len(coll.Errors) != 1 || coll.Errors[0].Row != 4 {
		t.Fatalf("expected row error for row 4, got %v", coll.Errors)
	}
}

func TestCollection_InsertionOrder(t *testing.T) {
	coll := newTestCollection(t)
	_ = coll.Add("site", "b", "s1#a = 1", 4, DefaultRules())
	_ = coll.Add("site", "a", "s1#a = 1", 5, DefaultRules())
	conds := coll.Conditions()
	if len(conds) != 2 || conds[0].ID != "site_b" || conds[1].ID != "site_a" {
		t.Fatalf("expected insertion order, got %v", conds)
	}
}
