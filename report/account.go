package report

import (
	"sort"
	"strings"

	"github.com/ledgerpipe/beancount/ast"
)

// Account is a node in the report's account tree (spec §3): name, full
// path, parent (weak back-reference), children. Distinct from the
// teacher's flat ledger.Account map-with-prefix-scan model
// (ledger/account.go's GetChildren/GetParent via strings.Split) — the
// account-aggregation pass needs real parent/child edges for a bottom-up
// walk, grounded in the teacher's ledger/graph.go node/edge abstraction but
// specialized to a tree since the report's account structure has no cycles
// and no cross edges.
type Account struct {
	Name     string
	FullName string

	parent   *Account
	children []*Account
}

// Parent returns a's parent (weak back-reference), or nil for the root.
func (a *Account) Parent() *Account { return a.parent }

// Children returns a's direct children in insertion order.
func (a *Account) Children() []*Account { return a.children }

// AccountTree indexes Account nodes by full path and owns the single
// unnamed root ("master", per spec §3).
type AccountTree struct {
	root   *Account
	byName map[string]*Account
}

// NewAccountTree creates an empty tree with only its root.
func NewAccountTree() *AccountTree {
	root := &Account{}
	return &AccountTree{root: root, byName: map[string]*Account{"": root}}
}

// Root returns the tree's unnamed root.
func (t *AccountTree) Root() *Account { return t.root }

// Intern returns the Account node for the given colon-separated path,
// creating it and any missing ancestors. Every account's full path equals
// its parent's full path plus ":" plus its name (spec §3's invariant).
func (t *AccountTree) Intern(name ast.Account) *Account {
	full := string(name)
	if acc, ok := t.byName[full]; ok {
		return acc
	}
	parts := strings.Split(full, ":")
	parent := t.root
	path := ""
	for i, part := range parts {
		if i == 0 {
			path = part
		} else {
			path = path + ":" + part
		}
		if acc, ok := t.byName[path]; ok {
			parent = acc
			continue
		}
		node := &Account{Name: part, FullName: path, parent: parent}
		parent.children = append(parent.children, node)
		t.byName[path] = node
		parent = node
	}
	return parent
}

// Lookup returns the node for path if it has already been interned.
func (t *AccountTree) Lookup(path string) (*Account, bool) {
	acc, ok := t.byName[path]
	return acc, ok
}

// Walk visits every node depth-first, parent before children, children
// ordered by name — including the root.
func (t *AccountTree) Walk(visit func(*Account)) {
	var walk func(*Account)
	walk = func(a *Account) {
		visit(a)
		children := append([]*Account(nil), a.children...)
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		for _, c := range children {
			walk(c)
		}
	}
	walk(t.root)
}

// WalkPostOrder visits children before their parent — used by the account
// aggregation pass's phase 2 bottom-up total (spec §4.5), grounded in the
// teacher's ledger.go buildTypeSubtree/aggregate closure.
func (t *AccountTree) WalkPostOrder(visit func(*Account)) {
	var walk func(*Account)
	walk = func(a *Account) {
		for _, c := range a.children {
			walk(c)
		}
		visit(a)
	}
	walk(t.root)
}
