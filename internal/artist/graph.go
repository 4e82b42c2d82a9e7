package artist

import (
	"context"
	"fmt"
	"strings"
)

// GraphNode is an artist in a relationship graph, annotated with its
// distance from the root.
type GraphNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
	Depth    int    `json:"depth"`
}

// GraphEdge is a relation between two nodes of a graph.
type GraphEdge struct {
	FromArtistID string   `json:"fromArtistId"`
	ToArtistID   string   `json:"toArtistId"`
	RelationType string   `json:"relationType"`
	Strength     *float64 `json:"strength,omitempty"`
}

// Graph is the neighborhood of a root artist up to a bounded depth.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type neighbor struct {
	fromID       string
	toID         string
	toName       string
	toImageURL   string
	relationType string
	strength     *float64
}

// Network expands the relationship graph around the given artist with a
// breadth-first traversal, stopping at maxDepth hops. Each artist appears
// once, at its minimum depth. Edges are included when both endpoints are in
// the result set. An unknown root yields an empty graph.
func (s *Service) Network(ctx context.Context, rootID string, maxDepth int) (*Graph, error) {
	root, err := s.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}, nil
	}

	visited := map[string]int{root.ID: 0}
	nodes := []GraphNode{{ID: root.ID, Name: root.Name, ImageURL: root.ImageURL, Depth: 0}}
	var edges []GraphEdge
	seenEdges := make(map[string]bool)
	frontier := []string{root.ID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		neighbors, err := s.neighborsOf(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, n := range neighbors {
			if _, ok := visited[n.toID]; !ok {
				visited[n.toID] = depth
				nodes = append(nodes, GraphNode{
					ID: n.toID, Name: n.toName, ImageURL: n.toImageURL, Depth: depth,
				})
				next = append(next, n.toID)
			}

			key := n.fromID + "|" + n.toID
			if !seenEdges[key] {
				seenEdges[key] = true
				edges = append(edges, GraphEdge{
					FromArtistID: n.fromID,
					ToArtistID:   n.toID,
					RelationType: n.relationType,
					Strength:     n.strength,
				})
			}
		}
		frontier = next
	}

	// Pick up edges between already-visited artists whose source sits in
	// the deepest layer.
	if len(frontier) > 0 {
		neighbors, err := s.neighborsOf(ctx, frontier)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if _, ok := visited[n.toID]; !ok {
				continue
			}
			key := n.fromID + "|" + n.toID
			if !seenEdges[key] {
				seenEdges[key] = true
				edges = append(edges, GraphEdge{
					FromArtistID: n.fromID,
					ToArtistID:   n.toID,
					RelationType: n.relationType,
					Strength:     n.strength,
				})
			}
		}
	}

	if edges == nil {
		edges = []GraphEdge{}
	}
	return &Graph{Nodes: nodes, Edges: edges}, nil
}

// neighborsOf fetches the outbound relations of every artist in the
// frontier with a single IN query.
func (s *Service) neighborsOf(ctx context.Context, frontier []string) ([]neighbor, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(frontier)), ",")
	args := make([]any, len(frontier))
	for i, id := range frontier {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.from_artist_id, r.to_artist_id, a.name, a.image_url,
			r.relation_type, r.strength
		FROM artist_relations r
		JOIN artists a ON a.id = r.to_artist_id
		WHERE r.from_artist_id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("expanding graph frontier: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var neighbors []neighbor
	for rows.Next() {
		var n neighbor
		var strength *float64
		if err := rows.Scan(&n.fromID, &n.toID, &n.toName, &n.toImageURL,
			&n.relationType, &strength); err != nil {
			return nil, fmt.Errorf("scanning graph neighbor: %w", err)
		}
		n.strength = strength
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}
