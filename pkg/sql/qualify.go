package sql

import (
	"encoding/json"
	"sort"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// QualifyTables prefixes unqualified references to known tables with
// namespace. References are found by parsing query with the PostgreSQL
// parser, so string literals, column references and function syntax such as
// EXTRACT(YEAR FROM col) are never touched. Names bound by a WITH clause
// anywhere in the statement are left alone, as are references to tables not
// listed in tables. Matching is exact against the parser's folded names.
// When query does not parse it is returned unchanged.
func QualifyTables(query, namespace string, tables []string) string {
	if namespace == "" || len(tables) == 0 || strings.TrimSpace(query) == "" {
		return query
	}

	tree, err := pg_query.ParseToJSON(query)
	if err != nil {
		return query
	}

	var root any
	if err := json.Unmarshal([]byte(tree), &root); err != nil {
		return query
	}

	refs := &tableRefs{ctes: map[string]struct{}{}}
	refs.walk(root)

	known := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		known[t] = struct{}{}
	}

	var offsets []int
	for _, ref := range refs.unqualified {
		if _, ok := known[ref.name]; !ok {
			continue
		}
		if _, ok := refs.ctes[ref.name]; ok {
			continue
		}
		if ref.location < 0 || ref.location >= len(query) {
			continue
		}
		offsets = append(offsets, ref.location)
	}
	if len(offsets) == 0 {
		return query
	}

	// Insert back to front so earlier offsets stay valid.
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))
	out := query
	prev := -1
	for _, off := range offsets {
		if off == prev {
			continue
		}
		out = out[:off] + namespace + "." + out[off:]
		prev = off
	}
	return out
}

type tableRef struct {
	name     string
	location int
}

// tableRefs collects RangeVar nodes and CTE names from a parse tree in
// pg_query's JSON form.
type tableRefs struct {
	unqualified []tableRef
	ctes        map[string]struct{}
}

func (r *tableRefs) walk(node any) {
	switch n := node.(type) {
	case map[string]any:
		if rv, ok := n["RangeVar"].(map[string]any); ok {
			r.addRangeVar(rv)
		}
		// INSERT, UPDATE and DELETE targets are emitted without the node wrapper.
		if rel, ok := n["relation"].(map[string]any); ok {
			if _, named := rel["relname"]; named {
				r.addRangeVar(rel)
			}
		}
		if cte, ok := n["CommonTableExpr"].(map[string]any); ok {
			if name, ok := cte["ctename"].(string); ok {
				r.ctes[name] = struct{}{}
			}
		}
		for _, child := range n {
			r.walk(child)
		}
	case []any:
		for _, child := range n {
			r.walk(child)
		}
	}
}

func (r *tableRefs) addRangeVar(rv map[string]any) {
	if _, ok := rv["schemaname"]; ok {
		return
	}
	if _, ok := rv["catalogname"]; ok {
		return
	}
	name, _ := rv["relname"].(string)
	loc, ok := rv["location"].(float64)
	if name == "" || !ok {
		return
	}
	r.unqualified = append(r.unqualified, tableRef{name: name, location: int(loc)})
}
