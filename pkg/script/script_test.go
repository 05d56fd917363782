package script

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ssargent/yggdrasil/pkg/btree"
)

func TestParse(t *testing.T) {
	src := `4
5
I 10, 100
I 20, 200
B 10
R 10
Z 1
`
	s, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Order != 4 {
		t.Errorf("Order = %d, want 4", s.Order)
	}
	if len(s.Ops) != 5 {
		t.Fatalf("Parsed %d ops, want 5", len(s.Ops))
	}

	want := []Op{
		{Code: OpInsert, Key: 10, Value: 100},
		{Code: OpInsert, Key: 20, Value: 200},
		{Code: OpSearch, Key: 10},
		{Code: OpRemove, Key: 10},
		{Code: 'Z'},
	}
	for i, op := range want {
		if s.Ops[i] != op {
			t.Errorf("Op %d = %+v, want %+v", i, s.Ops[i], op)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "empty input", src: ""},
		{name: "missing count", src: "4\n"},
		{name: "non-numeric order", src: "four\n1\nB 1\n"},
		{name: "insert missing value", src: "4\n1\nI 10\n"},
		{name: "search missing key", src: "4\n1\nB\n"},
		{name: "truncated operations", src: "4\n3\nI 1, 10\n"},
		{name: "bad number", src: "4\n1\nI ten, 1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.src)); err == nil {
				t.Error("Expected a parse error")
			}
		})
	}
}

func TestRunTranscript(t *testing.T) {
	src := `4
7
I 10, 100
I 20, 200
B 10
B 15
R 10
B 10
X 1
`
	s, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tree, err := btree.New(s.Order)
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	defer tree.Close()

	var out strings.Builder
	if err := s.Run(tree, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := FoundMessage + "\n" +
		NotFoundMessage + "\n" +
		NotFoundMessage + "\n" +
		UnsupportedMessage + "\n" +
		DumpHeader + "\n" +
		"root: [ 20: 200 ]\n"
	if out.String() != want {
		t.Errorf("Transcript mismatch:\ngot:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestRun_RemoveMissingKeyIsNotFatal(t *testing.T) {
	src := `3
2
R 99
B 99
`
	s, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tree, err := btree.New(s.Order)
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	defer tree.Close()

	var out strings.Builder
	if err := s.Run(tree, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := NotFoundMessage + "\n" + DumpHeader + "\n" + btree.EmptyTreeDump + "\n"
	if out.String() != want {
		t.Errorf("Transcript mismatch:\ngot:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestRunFullScenario(t *testing.T) {
	// A longer script mixing all three operations; verify the final tree
	// contents rather than the transcript.
	var b strings.Builder
	b.WriteString("3\n40\n")
	for k := 1; k <= 20; k++ {
		b.WriteString(insertLine(k))
	}
	for k := 1; k <= 20; k += 2 {
		b.WriteString(removeLine(k))
	}
	for k := 1; k <= 10; k++ {
		b.WriteString(searchLine(k))
	}

	s, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tree, err := btree.New(s.Order)
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	defer tree.Close()

	var out strings.Builder
	if err := s.Run(tree, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pairs, err := tree.Pairs()
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	if len(pairs) != 10 {
		t.Fatalf("Tree holds %d keys, want 10", len(pairs))
	}
	for i, p := range pairs {
		if want := int32(2 * (i + 1)); p.Key != want {
			t.Errorf("Pair %d is key %d, want %d", i, p.Key, want)
		}
	}
}

func insertLine(k int) string {
	return fmt.Sprintf("I %d, %d\n", k, k*10)
}

func removeLine(k int) string {
	return fmt.Sprintf("R %d\n", k)
}

func searchLine(k int) string {
	return fmt.Sprintf("B %d\n", k)
}
