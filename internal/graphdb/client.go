package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/nidhogg/gym-advisor/internal/graph"
	"go.uber.org/zap"
)

// maxQueryTokens bounds how many query words feed the Cypher match.
const maxQueryTokens = 6

// Client runs relation searches against a Neo4j database. It is the remote
// counterpart of the local graph engine; callers fall back to the local
// engine when this one is unreachable.
type Client struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewClient creates a Neo4j-backed graph client.
func NewClient(uri, user, password string, logger *zap.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Client{driver: driver, logger: logger}, nil
}

// Ping verifies the Neo4j connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close shuts down the Neo4j driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// QueryEdges finds edges whose endpoint names contain any query token,
// case-insensitively. Paths are not computed remotely; the local engine
// covers multi-hop evidence.
func (c *Client) QueryEdges(ctx context.Context, queryText string, limit int) (*graph.Result, error) {
	if limit <= 0 {
		limit = 25
	}
	var tokens []string
	for _, w := range strings.Fields(queryText) {
		if len(w) > 2 {
			tokens = append(tokens, w)
		}
		if len(tokens) >= maxQueryTokens {
			break
		}
	}
	res := &graph.Result{MatchedNodes: []string{}, Edges: []graph.Edge{}, Paths: [][]string{}}
	if len(tokens) == 0 {
		return res, nil
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`UNWIND $tokens AS tok
		 MATCH (a)-[r]->(b)
		 WHERE toLower(a.name) CONTAINS toLower(tok) OR toLower(b.name) CONTAINS toLower(tok)
		 RETURN DISTINCT a.name AS source, r.type AS relation, b.name AS target
		 LIMIT $limit`,
		map[string]any{"tokens": tokens, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("neo4j query: %w", err)
	}

	nodeSeen := map[string]bool{}
	for result.Next(ctx) {
		rec := result.Record()
		source, _ := rec.Get("source")
		relation, _ := rec.Get("relation")
		target, _ := rec.Get("target")

		e := graph.Edge{
			Source:   asString(source),
			Relation: asString(relation),
			Target:   asString(target),
		}
		if e.Relation == "" {
			e.Relation = graph.DefaultRelation
		}
		res.Edges = append(res.Edges, e)
		for _, n := range []string{e.Source, e.Target} {
			if n != "" && !nodeSeen[n] && len(res.MatchedNodes) < 20 {
				nodeSeen[n] = true
				res.MatchedNodes = append(res.MatchedNodes, n)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("neo4j result: %w", err)
	}
	return res, nil
}

// IngestEdges merges entity nodes and typed relations into the database.
func (c *Client) IngestEdges(ctx context.Context, edges []graph.Edge) error {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		rel := e.Relation
		if rel == "" {
			rel = graph.DefaultRelation
		}
		rows = append(rows, map[string]any{
			"source":   e.Source,
			"relation": rel,
			"target":   e.Target,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`UNWIND $rows AS row
		 MERGE (a:Entity {name: row.source})
		 MERGE (b:Entity {name: row.target})
		 MERGE (a)-[r:REL {type: row.relation}]->(b)`,
		map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("neo4j ingest: %w", err)
	}
	c.logger.Info("ingested graph edges", zap.Int("edges", len(rows)))
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
