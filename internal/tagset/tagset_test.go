package tagset

import (
	"fmt"
	"testing"
)

func TestAdd_ReportsNovelty(t *testing.T) {
	s := New()
	if !s.Add("a") {
		t.Error("first Add(a) should report new")
	}
	if s.Add("a") {
		t.Error("second Add(a) should report seen")
	}
	if s.Add("") {
		t.Error("empty value must be ignored")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestContains(t *testing.T) {
	s := New()
	s.Add("x")
	if !s.Contains("x") {
		t.Error("x should be a member")
	}
	if s.Contains("y") {
		t.Error("y should not be a member")
	}
	if s.Contains("") {
		t.Error("empty string is never a member")
	}
}

func TestValues_FirstSeenOrder(t *testing.T) {
	s := New()
	for _, v := range []string{"c", "a", "b", "a", "c"} {
		s.Add(v)
	}
	got := s.Values()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values = %v, want %v", got, want)
		}
	}
}

func TestUnion(t *testing.T) {
	a := New()
	a.Add("one")
	a.Add("two")

	b := New()
	b.Add("two")
	b.Add("three")

	a.Union(b)
	if a.Len() != 3 {
		t.Errorf("Len = %d, want 3", a.Len())
	}
	for _, v := range []string{"one", "two", "three"} {
		if !a.Contains(v) {
			t.Errorf("union should contain %q", v)
		}
	}
}

func TestLen_ManyValues(t *testing.T) {
	s := New()
	for i := 0; i < 10000; i++ {
		s.Add(fmt.Sprintf("value-%d", i))
	}
	for i := 0; i < 10000; i += 7 {
		s.Add(fmt.Sprintf("value-%d", i))
	}
	if s.Len() != 10000 {
		t.Errorf("Len = %d, want 10000", s.Len())
	}
}
