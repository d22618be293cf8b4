package namespace

import (
	"errors"
	"fmt"
	"testing"

	"github.com/user/fridacode/internal/types"
)

func paths(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuild_SharedPackage(t *testing.T) {
	idx, err := Build([]string{"a.b.d", "a.b.c"})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 4 {
		t.Fatalf("expected 4 nodes, got %d: %v", idx.Len(), paths(idx.Nodes()))
	}

	for path, kind := range map[string]Kind{
		"a":     KindPackage,
		"a.b":   KindPackage,
		"a.b.c": KindClass,
		"a.b.d": KindClass,
	} {
		n, ok := idx.Lookup(path)
		if !ok {
			t.Fatalf("missing node %s", path)
		}
		if n.Kind != kind {
			t.Errorf("%s: expected %s, got %s", path, kind, n.Kind)
		}
	}

	children := paths(idx.ChildrenOf("a.b"))
	if !equalStrings(children, []string{"a.b.c", "a.b.d"}) {
		t.Errorf("expected sorted children [a.b.c a.b.d], got %v", children)
	}
	for _, c := range idx.ChildrenOf("a.b") {
		if c.Parent != "a.b" {
			t.Errorf("%s: expected parent a.b, got %q", c.Path, c.Parent)
		}
	}
	if roots := paths(idx.Roots()); !equalStrings(roots, []string{"a"}) {
		t.Errorf("expected single root a, got %v", roots)
	}
}

func TestBuild_BareName(t *testing.T) {
	idx, err := Build([]string{"Main"})
	if err != nil {
		t.Fatal(err)
	}
	roots := idx.Roots()
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	if roots[0].Kind != KindClass || roots[0].Name != "Main" || !roots[0].IsRoot() {
		t.Errorf("unexpected root %+v", roots[0])
	}
}

func TestBuild_OneNodePerPrefix(t *testing.T) {
	names := []string{
		"com.example.app.MainActivity",
		"com.example.app.ui.Button",
		"com.example.lib.Util",
		"org.json.JSONObject",
		"Bare",
		"com.example.app.MainActivity",
	}
	idx, err := Build(names)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{}
	for _, n := range names {
		for i := 0; i <= len(n); i++ {
			if i == len(n) || n[i] == '.' {
				want[n[:i]] = true
			}
		}
	}
	if idx.Len() != len(want) {
		t.Errorf("expected %d nodes, got %d", len(want), idx.Len())
	}
	seen := map[string]bool{}
	for _, n := range idx.Nodes() {
		if seen[n.Path] {
			t.Errorf("duplicate node %s", n.Path)
		}
		seen[n.Path] = true
		if !want[n.Path] {
			t.Errorf("unexpected node %s", n.Path)
		}
	}
	if roots := paths(idx.Roots()); !equalStrings(roots, []string{"Bare", "com", "org"}) {
		t.Errorf("unexpected roots %v", roots)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	names := []string{"x.y.Z", "a.B", "x.y.A", "x.C", "a.B"}
	first, err := Build(names)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Build(names)
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(paths(first.Nodes()), paths(second.Nodes())) {
		t.Fatalf("node order differs: %v vs %v", paths(first.Nodes()), paths(second.Nodes()))
	}
	for _, n := range first.Nodes() {
		other, _ := second.Lookup(n.Path)
		if n.Kind != other.Kind || !equalStrings(paths(n.Children), paths(other.Children)) {
			t.Errorf("%s differs between builds", n.Path)
		}
	}
}

func TestBuild_DoesNotReorderInput(t *testing.T) {
	names := []string{"b.B", "a.A"}
	if _, err := Build(names); err != nil {
		t.Fatal(err)
	}
	if names[0] != "b.B" {
		t.Error("Build sorted the caller's slice")
	}
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 0 || len(idx.Roots()) != 0 {
		t.Error("expected empty index")
	}
	if idx.ChildrenOf("anything") != nil {
		t.Error("expected no children for unknown path")
	}
}

func TestBuild_ClassWithNestedNames(t *testing.T) {
	idx, err := Build([]string{"a.b.c", "a.b"})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := idx.Lookup("a.b")
	if n.Kind != KindClass {
		t.Errorf("expected a.b to be a class, got %s", n.Kind)
	}
	if got := paths(idx.ChildrenOf("a.b")); !equalStrings(got, []string{"a.b.c"}) {
		t.Errorf("expected a.b.c under a.b, got %v", got)
	}
}

func TestBuild_RejectsEmptySegments(t *testing.T) {
	for _, name := range []string{"a..b", ".a", "a.", ""} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			idx, err := Build([]string{"ok.Name", name})
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve *types.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if ve.Name != name {
				t.Errorf("expected name %q in error, got %q", name, ve.Name)
			}
			if idx != nil {
				t.Error("expected no index on error")
			}
		})
	}
}

func TestWalk_MaxDepth(t *testing.T) {
	idx, err := Build([]string{"a.b.c.D"})
	if err != nil {
		t.Fatal(err)
	}
	var visited []string
	Walk(idx.Roots(), 2, func(n *Node, depth int) {
		visited = append(visited, fmt.Sprintf("%d:%s", depth, n.Path))
	})
	if !equalStrings(visited, []string{"0:a", "1:a.b"}) {
		t.Errorf("unexpected walk %v", visited)
	}
}
