package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/fridacode/internal/namespace"
	"github.com/user/fridacode/internal/types"
)

func TestPrintApps(t *testing.T) {
	var buf bytes.Buffer
	err := printApps(&buf, []types.App{
		{Identifier: "com.example.App", Name: "Example"},
		{Identifier: "com.other", Name: "Other", PID: 77},
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "-") {
		t.Errorf("expected stopped app to show -, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "77") {
		t.Errorf("expected running app pid, got %q", lines[2])
	}
}

func TestPrintTree(t *testing.T) {
	idx, err := namespace.Build([]string{"com.example.Main", "com.example.util.Helper", "java.lang.String"})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printTree(&buf, idx.Roots(), 0)
	out := buf.String()
	for _, want := range []string{"com/", "  example/", "    Main", "      Helper", "java/"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in tree:\n%s", want, out)
		}
	}

	buf.Reset()
	printTree(&buf, idx.Roots(), 2)
	if strings.Contains(buf.String(), "Main") {
		t.Errorf("expected depth 2 to stop above classes:\n%s", buf.String())
	}
}

func TestIndentLines(t *testing.T) {
	got := indentLines("a\nb\n")
	if got != "  a\n  b\n" {
		t.Errorf("expected indented lines, got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, []byte(`{"size":12,"mode":"0644"}`+"\n")); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"size\": 12,\n  \"mode\": \"0644\"\n}\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
