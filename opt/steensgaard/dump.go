package steensgaard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// classID derives a run-independent identifier from a class's sorted member
// labels, so two analyses of the same graph dump byte-identical output.
func classID(members []string) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	for _, m := range members {
		if _, err := h.Write([]byte(m)); err != nil {
			return "", err
		}
		if _, err := h.Write([]byte{0}); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Class is one union-find equivalence class of the final points-to graph.
type Class struct {
	ID       string
	Members  []string
	PointsTo string // ID of the pointed-to class, or empty
}

// Graph is the points-to graph emitted for downstream consumers (spec §6):
// one node per equivalence class, at most one out-edge each.
type Graph struct {
	Classes []Class
}

// Graph extracts the union-find state into its exported form.
func (a *Analysis) Graph() (*Graph, error) {
	memberOf := map[int][]string{}
	for id := range a.parent {
		root := a.find(id)
		memberOf[root] = append(memberOf[root], a.labels[id])
	}

	ids := map[int]string{}
	var roots []int
	for root, members := range memberOf {
		sort.Strings(members)
		memberOf[root] = members
		id, err := classID(members)
		if err != nil {
			return nil, err
		}
		ids[root] = id
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return ids[roots[i]] < ids[roots[j]] })

	g := &Graph{}
	for _, root := range roots {
		c := Class{ID: ids[root], Members: memberOf[root]}
		if succ := a.pointsTo[root]; succ != none {
			c.PointsTo = ids[a.find(succ)]
		}
		g.Classes = append(g.Classes, c)
	}
	return g, nil
}

// String renders the stable textual dump: a header line followed by one
// `set <id> { <member>, ... } -> <id-or-∅>` line per class.
func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "points-to graph: %d sets\n", len(g.Classes))
	for _, c := range g.Classes {
		target := "∅"
		if c.PointsTo != "" {
			target = c.PointsTo
		}
		fmt.Fprintf(&b, "set %s { %s } -> %s\n", c.ID, strings.Join(c.Members, ", "), target)
	}
	return b.String()
}

// Find returns the class containing a member with the given label, or nil.
func (g *Graph) Find(label string) *Class {
	for i := range g.Classes {
		for _, m := range g.Classes[i].Members {
			if m == label {
				return &g.Classes[i]
			}
		}
	}
	return nil
}

// Write uploads the textual dump to URL through fs.
func (g *Graph) Write(ctx context.Context, fs afs.Service, URL string) error {
	if err := fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(g.String())); err != nil {
		return fmt.Errorf("failed to write points-to graph to %v: %w", URL, err)
	}
	return nil
}
