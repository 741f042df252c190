package css

import (
	"strings"
)

// Node is a single item of parsed stylesheet tree. It is one of *AtRuleBlock
// or *DeclarationBlock.
type Node interface {
	node()
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Nodes    []Node   // All top-level items in source order
	Warnings []string // Recoverable problems skipped while parsing
}

// AtRuleBlock represents at-rule with a block, e.g. "@media print { ... }".
type AtRuleBlock struct {
	Name  string // Rule name without "@" (e.g., "media")
	Args  string // Prelude (e.g., "print and (min-width: 10em)")
	Nodes []Node // Nested items in source order
}

// Key returns string identifying at-rule context for nested blocks.
func (b *AtRuleBlock) Key() string {
	return "@" + b.Name + " " + b.Args
}

// DeclarationBlock is a selector list with its declarations.
type DeclarationBlock struct {
	Selectors    []string // Original selectors as they appear in the list
	Declarations []Declaration
}

// Styles renders declarations compactly: "prop:value;prop2:value2" without
// trailing separator.
func (b *DeclarationBlock) Styles() string {
	parts := make([]string, 0, len(b.Declarations))
	for _, d := range b.Declarations {
		parts = append(parts, d.String())
	}
	return strings.TrimRight(strings.Join(parts, ";"), ";")
}

// Declaration is a single property:value pair.
type Declaration struct {
	Property string
	Value    string
}

// String renders declaration without space after property name.
func (d Declaration) String() string {
	return d.Property + ":" + d.Value
}

func (*AtRuleBlock) node()      {}
func (*DeclarationBlock) node() {}

// Walk visits every declaration block in document order passing in key of
// the innermost enclosing at-rule block ("" on top level).
func (s *Stylesheet) Walk(fn func(media string, block *DeclarationBlock)) {
	walk(s.Nodes, "", fn)
}

func walk(nodes []Node, media string, fn func(string, *DeclarationBlock)) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *DeclarationBlock:
			fn(media, n)
		case *AtRuleBlock:
			walk(n.Nodes, n.Key(), fn)
		}
	}
}
