package syntax

import "testing"

func TestMatchOffsetsAreBytes(t *testing.T) {
	text := "é (define-key kv 1)"
	m, err := MustCompile(AnyDefine()).Find(text)
	if err != nil || m == nil {
		t.Fatalf("Find = %v, %v", m, err)
	}
	g := m.Group(2)
	if !g.Matched || g.Start != 15 || g.End != 17 {
		t.Fatalf("group 2 = %+v, want bytes 15..17", g)
	}
	if text[g.Start:g.End] != "kv" {
		t.Fatalf("slice = %q", text[g.Start:g.End])
	}
	if text[m.Start:m.End] != m.Text {
		t.Fatalf("whole match %q does not slice to %q", m.Text, text[m.Start:m.End])
	}
}

func TestUnmatchedGroup(t *testing.T) {
	m, err := MustCompile(`(a)(b)?`).Find("xa")
	if err != nil || m == nil {
		t.Fatalf("Find = %v, %v", m, err)
	}
	if !m.Group(1).Matched || m.Group(2).Matched {
		t.Fatalf("groups = %+v", m.Groups)
	}
	if m.Group(7).Matched {
		t.Fatal("out of range group must be unmatched")
	}
}

func TestFindLastAndNoMatch(t *testing.T) {
	re := MustCompile(`\d+`)
	last, err := re.FindLast("a1 b22 c333")
	if err != nil || last == nil || last.Text != "333" || last.Start != 8 {
		t.Fatalf("FindLast = %+v, %v", last, err)
	}
	none, err := re.Find("abc")
	if err != nil || none != nil {
		t.Fatalf("Find = %+v, %v", none, err)
	}
}

func TestCompileError(t *testing.T) {
	if _, err := Compile(`(unclosed`); err == nil {
		t.Fatal("expected compile error")
	}
}
