package source

import "testing"

func TestLineCol(t *testing.T) {
	f := NewFile("a.amy", "ab\ncde\n\nf")
	cases := []struct {
		off, line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
		{8, 4, 1},
	}
	for _, c := range cases {
		line, col := f.LineCol(c.off)
		if line != c.line || col != c.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", c.off, line, col, c.line, c.col)
		}
	}
}

func TestLineColCountsRunes(t *testing.T) {
	// "é" is two bytes; the column after it is 2, not 3.
	f := NewFile("u.amy", "é=1")
	if line, col := f.LineCol(2); line != 1 || col != 2 {
		t.Fatalf("got %d:%d, want 1:2", line, col)
	}
}

func TestLineColClampsOutOfRange(t *testing.T) {
	f := NewFile("a.amy", "ab")
	if line, col := f.LineCol(-5); line != 1 || col != 1 {
		t.Fatalf("negative offset: got %d:%d", line, col)
	}
	if line, col := f.LineCol(99); line != 1 || col != 3 {
		t.Fatalf("past-end offset: got %d:%d", line, col)
	}
}

func TestJoin(t *testing.T) {
	f := NewFile("a.amy", "hello world")
	a := Span{File: f, Start: 2, End: 4}
	b := Span{File: f, Start: 6, End: 9}
	j := Join(a, b)
	if j.Start != 2 || j.End != 9 {
		t.Fatalf("got [%d,%d), want [2,9)", j.Start, j.End)
	}
	if z := Join(Span{}, b); z != b {
		t.Fatalf("joining with the zero span should return the other side")
	}
}
