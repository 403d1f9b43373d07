package extract

import (
	"fmt"
	"testing"
)

func TestAdvance_RowSpanReusedExactly(t *testing.T) {
	for n := 2; n <= 6; n++ {
		state := RowSpanState{}
		first := []Cell{{Text: "X", RowSpan: fmt.Sprint(n)}, {Text: "A"}}

		state, dest, ok := Advance(state, first, DefaultLayout)
		if !ok || dest != 1 {
			t.Fatalf("n=%d: expected first row ok with dest 1, got ok=%v dest=%d", n, ok, dest)
		}
		if state.Remaining != n-1 {
			t.Fatalf("n=%d: expected remaining %d, got %d", n, n-1, state.Remaining)
		}

		for i := 0; i < n-1; i++ {
			state, dest, ok = Advance(state, []Cell{{Text: "B"}}, DefaultLayout)
			if !ok {
				t.Fatalf("n=%d row %d: expected ok", n, i)
			}
			if state.Airline != "X" {
				t.Errorf("n=%d row %d: expected airline X, got %q", n, i, state.Airline)
			}
			if dest != 0 {
				t.Errorf("n=%d row %d: expected dest 0, got %d", n, i, dest)
			}
			if state.Remaining != n-2-i {
				t.Errorf("n=%d row %d: expected remaining %d, got %d", n, i, n-2-i, state.Remaining)
			}
		}
		if state.Remaining != 0 {
			t.Fatalf("n=%d: expected remaining 0 before new airline, got %d", n, state.Remaining)
		}

		state, _, ok = Advance(state, []Cell{{Text: "Y"}, {Text: "C"}}, DefaultLayout)
		if !ok || state.Airline != "Y" {
			t.Errorf("n=%d: expected new airline Y, got %q (ok=%v)", n, state.Airline, ok)
		}
	}
}

func TestAdvance_InvalidRowSpanIgnored(t *testing.T) {
	for _, v := range []string{"", "abc", "1", "0", "-2", " "} {
		state, _, ok := Advance(RowSpanState{}, []Cell{{Text: "X", RowSpan: v}, {Text: "A"}}, DefaultLayout)
		if !ok {
			t.Fatalf("rowspan %q: expected row to decode", v)
		}
		if state.Remaining != 0 {
			t.Errorf("rowspan %q: expected no span, got remaining %d", v, state.Remaining)
		}
	}
}

func TestAdvance_LenientRowSpanDigits(t *testing.T) {
	state, _, _ := Advance(RowSpanState{}, []Cell{{Text: "X", RowSpan: " 3;"}, {Text: "A"}}, DefaultLayout)
	if state.Remaining != 2 {
		t.Errorf("expected remaining 2, got %d", state.Remaining)
	}
}

func TestAdvance_MissingAirlineCellSkipsRow(t *testing.T) {
	layout := ColumnLayout{Airline: 2, Destination: 1}
	prev := RowSpanState{Airline: "Old"}
	state, _, ok := Advance(prev, []Cell{{Text: "a"}, {Text: "b"}}, layout)
	if ok {
		t.Fatal("expected row to be skipped")
	}
	if state != prev {
		t.Errorf("expected state unchanged, got %+v", state)
	}
}

func TestAdvance_DestinationOutOfBoundsUsesLastCell(t *testing.T) {
	layout := ColumnLayout{Airline: 0, Destination: 4}
	_, dest, ok := Advance(RowSpanState{}, []Cell{{Text: "X"}, {Text: "a"}, {Text: "b"}}, layout)
	if !ok || dest != 2 {
		t.Errorf("expected last cell (2), got ok=%v dest=%d", ok, dest)
	}
}

func TestAdvance_SpannedRowDestinationBeforeAirline(t *testing.T) {
	layout := ColumnLayout{Airline: 1, Destination: 0}
	state := RowSpanState{Airline: "X", Remaining: 1}
	_, dest, ok := Advance(state, []Cell{{Text: "City"}}, layout)
	if !ok || dest != 0 {
		t.Errorf("expected dest 0, got ok=%v dest=%d", ok, dest)
	}
}

func TestAdvance_SpannedRowClampsIntoRow(t *testing.T) {
	layout := ColumnLayout{Airline: 0, Destination: 5}
	state := RowSpanState{Airline: "X", Remaining: 1}
	_, dest, ok := Advance(state, []Cell{{Text: "a"}, {Text: "b"}}, layout)
	if !ok || dest != 1 {
		t.Errorf("expected clamped dest 1, got ok=%v dest=%d", ok, dest)
	}
}

func TestAdvance_StripsCitationMarkers(t *testing.T) {
	state, _, ok := Advance(RowSpanState{}, []Cell{{Text: " Qantas[12][a] "}, {Text: "x"}}, DefaultLayout)
	if !ok {
		t.Fatal("expected ok")
	}
	if state.Airline != "Qantas" {
		t.Errorf("expected %q, got %q", "Qantas", state.Airline)
	}
}

func TestAdvance_EmptyAirlineSkipsRow(t *testing.T) {
	_, _, ok := Advance(RowSpanState{}, []Cell{{Text: "[1]"}, {Text: "x"}}, DefaultLayout)
	if ok {
		t.Error("expected row with empty airline to be skipped")
	}
}

func TestAdvance_NoCells(t *testing.T) {
	state := RowSpanState{Airline: "X", Remaining: 2}
	next, _, ok := Advance(state, nil, DefaultLayout)
	if ok {
		t.Error("expected empty row to be skipped")
	}
	if next != state {
		t.Errorf("expected span not consumed by empty row, got %+v", next)
	}
}
