package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Bigram", "Weight", "Need"}
	rows := [][]string{
		{`"th"`, "0.8344", "12"},
		{`"e "`, "0.51", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Bigram Weight Need" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != `"th"   0.8344   12` {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != `"e "     0.51    3` {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableRaggedRows(t *testing.T) {
	lines := formatTable([]string{"a"}, [][]string{{"x", "yy"}}, nil)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "a   " || lines[1] != "x yy" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}
