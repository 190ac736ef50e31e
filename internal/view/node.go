// Package view turns application state into a tree of typed nodes.
//
// Nodes carry plain text and attributes only; renderers (the TUI, the CLI
// list output) decide how each kind looks. Building the tree is pure: the
// same state always yields the same tree.
package view

import (
	"fmt"
	"strings"
)

// Kind identifies what a node represents
type Kind string

const (
	KindScreen      Kind = "screen"
	KindHeader      Kind = "header"
	KindGreeting    Kind = "greeting"
	KindList        Kind = "list"
	KindCard        Kind = "card"
	KindHeading     Kind = "heading"
	KindText        Kind = "text"
	KindBadge       Kind = "badge"
	KindAction      Kind = "action"
	KindPlaceholder Kind = "placeholder"
	KindForm        Kind = "form"
	KindField       Kind = "field"
	KindStatus      Kind = "status"
	KindOverlay     Kind = "overlay"
)

// Attributes understood by renderers
const (
	AttrDimmed      = "dimmed"
	AttrStrike      = "strike"
	AttrBadgeHigh   = "badge-high"
	AttrBadgeNormal = "badge-normal"
	AttrBadgeDone   = "badge-done"
	AttrSelected    = "selected"
	AttrFocused     = "focused"
	AttrBusy        = "busy"
	AttrDisabled    = "disabled"
	AttrError       = "error"
	AttrMuted       = "muted"
	AttrSecret      = "secret"
	AttrThemeLight  = "theme-light"
	AttrThemeDark   = "theme-dark"
)

// Action names
const (
	ActionMarkDone = "mark-done"
	ActionEdit     = "edit"
	ActionDelete   = "delete"
	ActionSave     = "save"
	ActionCancel   = "cancel"
	ActionConfirm  = "confirm"
	ActionLogin    = "login"
)

// Node is one element of a view tree
type Node struct {
	Kind     Kind
	Text     string
	ID       string
	Attrs    []string
	Children []*Node
}

func newNode(kind Kind, text string, attrs ...string) *Node {
	return &Node{Kind: kind, Text: text, Attrs: attrs}
}

func (n *Node) withID(id string) *Node {
	n.ID = id
	return n
}

func (n *Node) add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) set(attr string, on bool) {
	if on && !n.Has(attr) {
		n.Attrs = append(n.Attrs, attr)
	}
}

// Has reports whether the node carries attr
func (n *Node) Has(attr string) bool {
	for _, a := range n.Attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// Find returns every node of the given kind, depth first, including n itself
func (n *Node) Find(kind Kind) []*Node {
	var out []*Node
	n.walk(func(c *Node) {
		if c.Kind == kind {
			out = append(out, c)
		}
	})
	return out
}

// FindByID returns the first node with the given id, or nil
func (n *Node) FindByID(id string) *Node {
	var found *Node
	n.walk(func(c *Node) {
		if found == nil && c.ID == id {
			found = c
		}
	})
	return found
}

// Child returns the first direct child of the given kind, or nil
func (n *Node) Child(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// String renders an indented outline, one node per line:
//
//	kind#id [attr attr] "text"
func (n *Node) String() string {
	var b strings.Builder
	n.outline(&b, 0)
	return b.String()
}

func (n *Node) outline(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(string(n.Kind))
	if n.ID != "" {
		b.WriteString("#" + n.ID)
	}
	if len(n.Attrs) > 0 {
		b.WriteString(" [" + strings.Join(n.Attrs, " ") + "]")
	}
	if n.Text != "" {
		fmt.Fprintf(b, " %q", n.Text)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.outline(b, depth+1)
	}
}
