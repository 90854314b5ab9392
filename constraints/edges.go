package constraints

import "github.com/cs-au-dk/ccinfer/qual"

// eqEdge is a single undirected equality edge between two variable
// atoms. It is shared by reference between both atoms' adjacency
// lists so that toggling `active` is visible from either endpoint at
// once, rather than duplicating the flag per endpoint.
type eqEdge struct {
	x, y   AtomKey
	active bool
}

func (e *eqEdge) other(from AtomKey) AtomKey {
	if e.x == from {
		return e.y
	}
	return e.x
}

// impEdge is a directed implication edge: "a ≥ k ⇒ to ≥ k", stored in
// the adjacency list of `a`.
type impEdge struct {
	to AtomKey
	k  qual.Qualifier
}
