package artist

import (
	"context"
	"testing"
)

// chain builds a path A -> B -> C -> D and returns the artists in order.
func chain(t *testing.T, svc *Service, names ...string) []*Artist {
	t.Helper()
	ctx := context.Background()

	artists := make([]*Artist, len(names))
	for i, name := range names {
		a := &Artist{Name: name, SortName: name}
		if err := svc.Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		artists[i] = a
	}
	for i := 0; i+1 < len(artists); i++ {
		err := svc.CreateRelation(ctx, &Relation{
			FromArtistID: artists[i].ID,
			ToArtistID:   artists[i+1].ID,
			RelationType: "collaboration",
			Source:       "musicbrainz",
		})
		if err != nil {
			t.Fatalf("CreateRelation: %v", err)
		}
	}
	return artists
}

func TestNetworkDepthBound(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	artists := chain(t, svc, "A", "B", "C", "D")

	graph, err := svc.Network(ctx, artists[0].ID, 2)
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if len(graph.Nodes) != 3 {
		t.Fatalf("expected 3 nodes within depth 2, got %d", len(graph.Nodes))
	}
	depths := make(map[string]int)
	for _, n := range graph.Nodes {
		depths[n.Name] = n.Depth
	}
	if depths["A"] != 0 || depths["B"] != 1 || depths["C"] != 2 {
		t.Fatalf("depths = %v", depths)
	}
	if _, ok := depths["D"]; ok {
		t.Fatal("D is beyond the depth bound")
	}
	if len(graph.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(graph.Edges))
	}
}

func TestNetworkDepthZeroIsRootOnly(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	artists := chain(t, svc, "A", "B")

	graph, err := svc.Network(ctx, artists[0].ID, 0)
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if len(graph.Nodes) != 1 || graph.Nodes[0].ID != artists[0].ID {
		t.Fatalf("nodes = %+v", graph.Nodes)
	}
	if len(graph.Edges) != 0 {
		t.Fatalf("edges = %+v", graph.Edges)
	}
}

func TestNetworkUnknownRoot(t *testing.T) {
	svc := NewService(newTestDB(t))

	graph, err := svc.Network(context.Background(), "missing", 2)
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Fatalf("expected empty graph, got %+v", graph)
	}
}

func TestNetworkMinimumDepthWins(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	// Diamond: root -> mid -> far, plus a direct root -> far shortcut.
	root := &Artist{Name: "Root", SortName: "Root"}
	mid := &Artist{Name: "Mid", SortName: "Mid"}
	far := &Artist{Name: "Far", SortName: "Far"}
	for _, a := range []*Artist{root, mid, far} {
		if err := svc.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	for _, r := range []*Relation{
		{FromArtistID: root.ID, ToArtistID: mid.ID, RelationType: "collaboration", Source: "musicbrainz"},
		{FromArtistID: mid.ID, ToArtistID: far.ID, RelationType: "collaboration", Source: "musicbrainz"},
		{FromArtistID: root.ID, ToArtistID: far.ID, RelationType: "collaboration", Source: "musicbrainz"},
	} {
		if err := svc.CreateRelation(ctx, r); err != nil {
			t.Fatalf("CreateRelation: %v", err)
		}
	}

	graph, err := svc.Network(ctx, root.ID, 3)
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if len(graph.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(graph.Nodes))
	}
	for _, n := range graph.Nodes {
		if n.Name == "Far" && n.Depth != 1 {
			t.Fatalf("Far should be at its minimum depth 1, got %d", n.Depth)
		}
	}
	if len(graph.Edges) != 3 {
		t.Fatalf("expected all 3 edges, got %d", len(graph.Edges))
	}
}
