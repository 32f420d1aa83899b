package ast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKindNamesRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		name := k.String()
		if strings.HasPrefix(name, "kind(") || name == "" {
			t.Fatalf("kind %d has no name", k)
		}
		back, ok := ParseKind(name)
		if !ok || back != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", name, back, ok, k)
		}
	}
	if _, ok := ParseKind("invalid"); ok {
		t.Errorf("invalid must not parse")
	}
}

func TestDecodeLongAndShortForms(t *testing.T) {
	src := `
- kind: definition
  children:
    - {id: v}
    - kind: vector
      children: [10, 20, {str: "x"}]
- kind: call
  children:
    - {id: v}
    - kind: index
      children:
        - kind: slice
          children: [1, null]
`
	got, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Program(
		Def(Ident("v"), Vec(Num("10"), Num("20"), Str("x"))),
		CallChain(Ident("v"), At(Range(Num("1"), Omit()))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJSON(t *testing.T) {
	src := `{"kind": "add", "children": [{"num": "0x10"}, 2]}`
	got, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != Add || got.Child(0).Text != "0x10" || got.Child(1).Text != "2" {
		t.Errorf("unexpected tree %s", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown kind", `{kind: frobnicate}`, "unknown node kind"},
		{"bare string", `{kind: add, children: [x, 1]}`, "bare scalar"},
		{"missing kind", `{text: x}`, "node without kind"},
		{"unknown field", `{kind: nil, extra: 1}`, "unknown field"},
		{"empty", ``, "empty document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Decode error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateAcceptsWellFormedTree(t *testing.T) {
	prog := Program(
		Def(Ident("f"), Func(
			ParamList(Arg("a"), DefaultArg("b", Num("5")), Rest("c")),
			Body(ReturnStmt(Ident("a"))),
		)),
		CallChain(Ident("f"), Args(Num("1"))),
		ForEachLoop(Var("x"), Vec(Num("1")), Body(BreakStmt())),
		IfChain(
			IfBranch(Num("1"), Body()),
			ElsifBranch(Num("0"), Body()),
			ElseBranch(Body()),
		),
	)
	if problems := Validate(prog); len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	tests := []struct {
		name string
		tree *Node
		want string
	}{
		{"variadic not last", Func(ParamList(Rest("r"), Arg("a")), Body()), "must be last"},
		{"mixed arguments", CallChain(Ident("f"), Args(Num("1"), Named("a", Num("2")))), "cannot be mixed"},
		{"assign to literal", Assignment(Assign, Num("1"), Num("2")), "cannot assign"},
		{"slice outside index", Range(Num("1"), Num("2")), "not allowed under"},
		{"else not last", IfChain(IfBranch(Num("1"), Body()), ElseBranch(Body()), ElsifBranch(Num("1"), Body())), "else must be last"},
		{"missing identifier text", Ident(""), "missing text"},
		{"binary arity", &Node{Kind: Add, Children: []*Node{Num("1")}}, "want exactly 2"},
		{"empty call", &Node{Kind: Call}, "has 0 children"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Validate(tt.tree)
			for _, p := range problems {
				if strings.Contains(p.Error(), tt.want) {
					return
				}
			}
			t.Fatalf("problems %v do not mention %q", problems, tt.want)
		})
	}
}
