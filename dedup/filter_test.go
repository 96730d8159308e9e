package dedup

import (
	"testing"

	"github.com/philipp01105/conlog/core"
)

type owner struct{ name string }

func TestFilterSuppressesRepeats(t *testing.T) {
	f := NewFilter()
	a := &owner{"a"}
	k := Key{Level: core.InfoLevel, Owner: a, Text: "same"}

	if v := f.Check(k, nil); !v.Allow || v.Pending != nil {
		t.Fatalf("first Check() = %+v, want allowed without pending", v)
	}
	for i := 0; i < 3; i++ {
		if v := f.Check(k, nil); v.Allow {
			t.Fatalf("repeat %d allowed", i)
		}
	}
	if f.Suppressed() != 3 {
		t.Errorf("Suppressed() = %d, want 3", f.Suppressed())
	}

	var got []string
	delegate := func(u core.Untraceable) { got = append(got, u.String()) }
	v := f.Check(Key{Level: core.InfoLevel, Owner: a, Text: "other"}, delegate)
	if !v.Allow || v.Pending == nil {
		t.Fatalf("Check() = %+v, want allowed with pending repeat", v)
	}
	if v.Pending.Count != 3 || v.Pending.Key != k {
		t.Errorf("Pending = %+v", v.Pending)
	}
	if v.Pending.Summary().String() != "Last message repeated 3 times." {
		t.Errorf("Summary() = %q", v.Pending.Summary())
	}
	if len(got) != 0 {
		t.Error("delegate of the new message must not be used for the old streak")
	}
}

func TestRepeatSummarySingular(t *testing.T) {
	r := Repeat{Count: 1}
	if got := r.Summary().String(); got != "Last message repeated 1 time." {
		t.Errorf("Summary() = %q", got)
	}
	r.Count = 2
	if got := r.Summary().String(); got != "Last message repeated 2 times." {
		t.Errorf("Summary() = %q", got)
	}
}

func TestRepeatEmitUsesStreakDelegate(t *testing.T) {
	f := NewFilter()
	var first, second []string
	k := Key{Level: core.WarnLevel, Owner: 1, Text: "x"}

	f.Check(k, func(u core.Untraceable) { first = append(first, u.String()) })
	f.Check(k, func(u core.Untraceable) { second = append(second, u.String()) })
	v := f.Check(Key{Level: core.WarnLevel, Owner: 1, Text: "y"}, func(u core.Untraceable) {
		second = append(second, u.String())
	})
	v.Pending.Emit()

	if len(first) != 1 || first[0] != "Last message repeated 1 time." {
		t.Errorf("first delegate got %v", first)
	}
	if len(second) != 0 {
		t.Errorf("later delegates got %v", second)
	}
}

func TestFilterLevelAndOwnerBreakStreaks(t *testing.T) {
	f := NewFilter()
	a, b := &owner{"a"}, &owner{"b"}

	steps := []Key{
		{Level: core.InfoLevel, Owner: a, Text: "m"},
		{Level: core.WarnLevel, Owner: a, Text: "m"},
		{Level: core.WarnLevel, Owner: b, Text: "m"},
		{Level: core.InfoLevel, Owner: a, Text: "m"},
	}
	for i, k := range steps {
		v := f.Check(k, nil)
		if !v.Allow {
			t.Errorf("step %d suppressed", i)
		}
		if v.Pending != nil {
			t.Errorf("step %d produced a repeat", i)
		}
	}
	if f.Suppressed() != 0 {
		t.Errorf("Suppressed() = %d", f.Suppressed())
	}
}

func TestFilterRecordsMessageAfterStreak(t *testing.T) {
	f := NewFilter()
	x := Key{Level: core.InfoLevel, Owner: 1, Text: "x"}
	y := Key{Level: core.InfoLevel, Owner: 1, Text: "y"}

	f.Check(x, nil)
	f.Check(x, nil)
	if v := f.Check(y, nil); v.Pending == nil {
		t.Fatal("expected pending repeat")
	}
	if v := f.Check(y, nil); v.Allow {
		t.Error("repeat of the message that ended a streak should be suppressed")
	}
}

func TestFilterBreak(t *testing.T) {
	f := NewFilter()
	k := Key{Level: core.ErrorLevel, Owner: 1, Text: "e"}

	if f.Break() != nil {
		t.Error("Break() on empty filter returned a repeat")
	}

	f.Check(k, nil)
	f.Check(k, nil)
	r := f.Break()
	if r == nil || r.Count != 1 {
		t.Fatalf("Break() = %+v, want count 1", r)
	}
	if v := f.Check(k, nil); !v.Allow || v.Pending != nil {
		t.Errorf("Check() after Break() = %+v", v)
	}
}

func TestFilterReset(t *testing.T) {
	f := NewFilter()
	k := Key{Level: core.InfoLevel, Owner: 1, Text: "r"}
	f.Check(k, nil)
	f.Check(k, nil)
	f.Reset()
	if v := f.Check(k, nil); !v.Allow || v.Pending != nil {
		t.Errorf("Check() after Reset() = %+v", v)
	}
}

func BenchmarkFilterCheck(b *testing.B) {
	f := NewFilter()
	keys := []Key{
		{Level: core.InfoLevel, Owner: 1, Text: "a"},
		{Level: core.InfoLevel, Owner: 1, Text: "a"},
		{Level: core.InfoLevel, Owner: 1, Text: "b"},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f.Check(keys[i%len(keys)], nil)
	}
}
