package css_test

import (
	"testing"

	"go.uber.org/zap"

	"relcss/css"
)

// blocks collects all declaration blocks with their media keys in document order.
func blocks(sheet *css.Stylesheet) ([]string, []*css.DeclarationBlock) {
	var (
		media []string
		out   []*css.DeclarationBlock
	)
	sheet.Walk(func(m string, b *css.DeclarationBlock) {
		media = append(media, m)
		out = append(out, b)
	})
	return media, out
}

func mustParse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(input), "test")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sheet
}

func TestParser_ElementSelector(t *testing.T) {
	sheet := mustParse(t, `p { text-indent: 1em; }`)

	_, bs := blocks(sheet)
	if len(bs) != 1 {
		t.Fatalf("expected 1 block, got %d", len(bs))
	}
	if len(bs[0].Selectors) != 1 || bs[0].Selectors[0] != "p" {
		t.Errorf("expected selectors [p], got %v", bs[0].Selectors)
	}
	if got := bs[0].Styles(); got != "text-indent:1em" {
		t.Errorf("expected styles 'text-indent:1em', got '%s'", got)
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	sheet := mustParse(t, `table, tr, td { border: 1px solid red; }`)

	_, bs := blocks(sheet)
	if len(bs) != 1 {
		t.Fatalf("expected 1 block for grouped selector, got %d", len(bs))
	}

	expected := []string{"table", "tr", "td"}
	if len(bs[0].Selectors) != len(expected) {
		t.Fatalf("expected selectors %v, got %v", expected, bs[0].Selectors)
	}
	for i, sel := range bs[0].Selectors {
		if sel != expected[i] {
			t.Errorf("selector %d: expected '%s', got '%s'", i, expected[i], sel)
		}
	}
	if got := bs[0].Styles(); got != "border:1px solid red" {
		t.Errorf("expected styles 'border:1px solid red', got '%s'", got)
	}
}

func TestParser_MultipleDeclarations(t *testing.T) {
	sheet := mustParse(t, `input { background-color: white; border: 1px solid black; }`)

	_, bs := blocks(sheet)
	if len(bs) != 1 {
		t.Fatalf("expected 1 block, got %d", len(bs))
	}
	if got := bs[0].Styles(); got != "background-color:white;border:1px solid black" {
		t.Errorf("unexpected styles '%s'", got)
	}
	if len(bs[0].Declarations) != 2 || bs[0].Declarations[1].Property != "border" {
		t.Errorf("unexpected declarations %v", bs[0].Declarations)
	}
}

func TestParser_NumericValues(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`a { padding-right: 0.75rem; }`, "padding-right:.75rem"},
		{`a { margin: -0.5em 0 0 1.25em; }`, "margin:-.5em 0 0 1.25em"},
		{`a { padding: 0; }`, "padding:0"},
		{`a { width: 10%; }`, "width:10%"},
		{`a { font-family: Arial, sans-serif; }`, "font-family:Arial,sans-serif"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, bs := blocks(mustParse(t, tt.input))
			if len(bs) != 1 {
				t.Fatalf("expected 1 block, got %d", len(bs))
			}
			if got := bs[0].Styles(); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestParser_MediaBlockPreserved(t *testing.T) {
	input := `input { background-color: black; }
@media print {
  input {
    padding-right: 0.75rem;
  }
}
input { background-color: white; }`

	sheet := mustParse(t, input)
	if len(sheet.Nodes) != 3 {
		t.Fatalf("expected 3 top-level nodes, got %d", len(sheet.Nodes))
	}

	mb, ok := sheet.Nodes[1].(*css.AtRuleBlock)
	if !ok {
		t.Fatalf("expected second node to be at-rule block, got %T", sheet.Nodes[1])
	}
	if mb.Name != "media" {
		t.Errorf("expected at-rule name 'media', got '%s'", mb.Name)
	}
	if mb.Args != "print" {
		t.Errorf("expected args 'print', got '%s'", mb.Args)
	}
	if mb.Key() != "@media print" {
		t.Errorf("expected key '@media print', got '%s'", mb.Key())
	}

	media, bs := blocks(sheet)
	wantMedia := []string{"", "@media print", ""}
	wantStyles := []string{"background-color:black", "padding-right:.75rem", "background-color:white"}
	if len(bs) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(bs))
	}
	for i := range bs {
		if media[i] != wantMedia[i] {
			t.Errorf("block %d: expected media '%s', got '%s'", i, wantMedia[i], media[i])
		}
		if got := bs[i].Styles(); got != wantStyles[i] {
			t.Errorf("block %d: expected styles '%s', got '%s'", i, wantStyles[i], got)
		}
	}
}

func TestParser_MediaQueryArgs(t *testing.T) {
	sheet := mustParse(t, `@media print and (-ms-high-contrast: active) { input { padding: 0; } }`)

	media, bs := blocks(sheet)
	if len(bs) != 1 {
		t.Fatalf("expected 1 block, got %d", len(bs))
	}
	if media[0] != "@media print and (-ms-high-contrast: active)" {
		t.Errorf("unexpected media key '%s'", media[0])
	}
}

func TestParser_NestedAtRules(t *testing.T) {
	sheet := mustParse(t, `@supports (display: grid) { @media print { a { color: red; } } b { color: blue; } }`)

	media, bs := blocks(sheet)
	if len(bs) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(bs))
	}
	if media[0] != "@media print" {
		t.Errorf("expected innermost media key for nested block, got '%s'", media[0])
	}
	if media[1] != "@supports (display: grid)" {
		t.Errorf("expected enclosing key after nested block, got '%s'", media[1])
	}
}

func TestParser_FontFaceAndImport(t *testing.T) {
	input := `@import url("base.css");
@font-face { font-family: "Body"; src: url(body.woff); }
p { color: red; }`

	sheet := mustParse(t, input)

	_, bs := blocks(sheet)
	if len(bs) != 1 {
		t.Fatalf("expected only ruleset to produce a block, got %d", len(bs))
	}
	if bs[0].Selectors[0] != "p" {
		t.Errorf("expected selector 'p', got '%s'", bs[0].Selectors[0])
	}
}

func TestParser_Comments(t *testing.T) {
	input := `/* header */
p {
  /* inner */
  color: red;
}`

	_, bs := blocks(mustParse(t, input))
	if len(bs) != 1 {
		t.Fatalf("expected 1 block, got %d", len(bs))
	}
	if got := bs[0].Styles(); got != "color:red" {
		t.Errorf("expected 'color:red', got '%s'", got)
	}
}

func TestParser_EmptyBlock(t *testing.T) {
	_, bs := blocks(mustParse(t, `p { }`))
	if len(bs) != 1 {
		t.Fatalf("expected 1 block, got %d", len(bs))
	}
	if got := bs[0].Styles(); got != "" {
		t.Errorf("expected empty styles, got '%s'", got)
	}
}

func TestParser_SourceOrderPreserved(t *testing.T) {
	input := `body { padding: 0; }
.a { color: red; }
@media screen { .b { color: blue; } }
.c { color: green; }`

	_, bs := blocks(mustParse(t, input))
	expected := []string{"body", ".a", ".b", ".c"}
	if len(bs) != len(expected) {
		t.Fatalf("expected %d blocks, got %d", len(expected), len(bs))
	}
	for i, b := range bs {
		if b.Selectors[0] != expected[i] {
			t.Errorf("block %d: expected '%s', got '%s'", i, expected[i], b.Selectors[0])
		}
	}
}

func TestParser_EmptyInput(t *testing.T) {
	sheet := mustParse(t, "")
	if len(sheet.Nodes) != 0 {
		t.Errorf("expected no nodes, got %d", len(sheet.Nodes))
	}
}

func TestDeclaration_String(t *testing.T) {
	d := css.Declaration{Property: "color", Value: "red"}
	if d.String() != "color:red" {
		t.Errorf("expected 'color:red', got '%s'", d.String())
	}
}

func TestParser_SelectorListKeptAsWritten(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"grouped compulsory", `a:hover, .btn { color: red; }`, []string{"a:hover", ".btn"}},
		{"line break inside selector", "button:focus\n::-webkit-file-upload-button { abc: def; }", []string{"button:focus\n::-webkit-file-upload-button"}},
		{"comma in function", `li:not(.a, .b), p { margin: 0; }`, []string{"li:not(.a, .b)", "p"}},
		{"comma in attribute", `[data-x="a,b"], span { margin: 0; }`, []string{`[data-x="a,b"]`, "span"}},
		{"descendant spacing", "ul  >  li,\n\tol li { margin: 0; }", []string{"ul  >  li", "ol li"}},
		{"comment in list", `h1 /* big */, h2 { margin: 0; }`, []string{"h1", "h2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bs := blocks(mustParse(t, tt.input))
			if len(bs) != 1 {
				t.Fatalf("expected 1 block, got %d", len(bs))
			}
			if len(bs[0].Selectors) != len(tt.want) {
				t.Fatalf("expected selectors %q, got %q", tt.want, bs[0].Selectors)
			}
			for i := range tt.want {
				if bs[0].Selectors[i] != tt.want[i] {
					t.Errorf("selector %d: expected %q, got %q", i, tt.want[i], bs[0].Selectors[i])
				}
			}
		})
	}
}

func TestParser_MediaQueryWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@media print and (-ms-high-contrast: active),  print and (-ms-high-contrast: none) { a { b: c; } }",
			"@media print and (-ms-high-contrast: active),  print and (-ms-high-contrast: none)"},
		{"@media screen\nand (min-width: 10em) { a { b: c; } }", "@media screen and (min-width: 10em)"},
		{"@MEDIA print { a { b: c; } }", "@media print"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			media, bs := blocks(mustParse(t, tt.input))
			if len(bs) != 1 {
				t.Fatalf("expected 1 block, got %d", len(bs))
			}
			if media[0] != tt.want {
				t.Errorf("expected media key %q, got %q", tt.want, media[0])
			}
		})
	}
}

func TestParser_Important(t *testing.T) {
	for _, input := range []string{`a { color: red !important; }`, `a { color: red!important; }`} {
		_, bs := blocks(mustParse(t, input))
		if len(bs) != 1 {
			t.Fatalf("expected 1 block, got %d", len(bs))
		}
		if got := bs[0].Styles(); got != "color:red !important" {
			t.Errorf("%s: expected 'color:red !important', got '%s'", input, got)
		}
	}
}
