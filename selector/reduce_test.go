package selector

import (
	"testing"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		selector string
		word     string
		optional bool
	}{
		{"html", "html", true},
		{"body", "body", true},
		{".success", "success", true},
		{"img.thumbnail", "thumbnail", true},
		{"div .thumbnail", "thumbnail", true},
		{"ul li a", "a", true},
		{"  TABLE  ", "table", true},
		{"abbr[title]", "abbr", true},
		{`[type="button"]`, "type", true},
		{"[hidden]", "hidden", true},
		{"[type=checkbox]", "type", true},
		{"button:focus", "button", true},
		{"::-webkit-file-upload-button", "::-webkit-file-upload-button", false},
		{"input::-moz-placeholder", "input", true},
		{".form-input::-webkit-input-placeholder", "form-input", true},
		{".form-multiselect:focus", "form-multiselect", true},
		{":focus", ":focus", false},
		{"*", "*", false},
		{"*:hover", "*", false},
		{"*.note", "note", true},
		{"p::after", "p", true},
		{`.md\:flex`, "md:flex", true},
		{`.hover\:bg-red:hover`, "hover:bg-red", true},
		{`.w-1\/2`, "w-1/2", true},
		{"button:focus\n::-webkit-file-upload-button", "button", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			word, optional := Reduce(tt.selector)
			if word != tt.word {
				t.Errorf("Reduce(%q) word = %q, want %q", tt.selector, word, tt.word)
			}
			if optional != tt.optional {
				t.Errorf("Reduce(%q) optional = %v, want %v", tt.selector, optional, tt.optional)
			}
		})
	}
}

func TestReduce_Deterministic(t *testing.T) {
	for _, s := range []string{"a.b:hover", "[data-x]", "::selection", `.sm\:p-2`} {
		w1, o1 := Reduce(s)
		w2, o2 := Reduce(s)
		if w1 != w2 || o1 != o2 {
			t.Errorf("Reduce(%q) not stable: (%q, %v) vs (%q, %v)", s, w1, o1, w2, o2)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`md\:flex`, "md:flex"},
		{`a\\b`, `a\b`},
		{`trailing\`, "trailing"},
	}
	for _, tt := range tests {
		if got := unescape(tt.in); got != tt.want {
			t.Errorf("unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
