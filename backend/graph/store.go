package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/gateway"
)

// Store implements orchestrator.StructuralBackend against Neo4j.
type Store struct {
	cfg    Config
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New creates a Neo4j-backed structural backend. Construction opens a
// connection pool but does not itself verify connectivity — callers rely on
// Probe for that, matching the Fallback Engine's own construction discipline
// of never failing at wiring time.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph backend: create driver: %w", err)
	}
	return &Store{cfg: cfg, driver: driver, logger: logger.With(zap.String("component", "graph_store"))}, nil
}

// Close releases the underlying driver's connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.cfg.Database,
	})
}

// Probe verifies the driver can reach Neo4j with a trivial round trip.
func (s *Store) Probe(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

type relRow struct {
	source string
	rel    string
	target string
	path   []string
}

// Search extracts candidate entity names from query, matches one-hop
// relationships touching any of them, and returns the traversal path as the
// literal sequence of entity names visited by the underlying Cypher path —
// the representation that generalizes cleanly once multi-hop traversal is
// added (spec §9 open question: exact path-field algorithm).
func (s *Store) Search(ctx context.Context, query string, project string) (gateway.StructuralResult, error) {
	terms := extractEntityTerms(query)
	if len(terms) == 0 {
		return gateway.StructuralResult{}, nil
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	cypher := `
		MATCH p = (a)-[r]-(b)
		WHERE a.name IN $terms OR b.name IN $terms
		RETURN a.name AS source, type(r) AS relation, b.name AS target,
		       [n IN nodes(p) | n.name] AS path
		LIMIT $limit`
	params := map[string]any{"terms": terms, "limit": s.cfg.Limit}
	if project != "" {
		cypher = `
			MATCH p = (a)-[r]-(b)
			WHERE (a.name IN $terms OR b.name IN $terms) AND a.project = $project AND b.project = $project
			RETURN a.name AS source, type(r) AS relation, b.name AS target,
			       [n IN nodes(p) | n.name] AS path
			LIMIT $limit`
		params["project"] = project
	}

	rowsAny, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var rows []relRow
		for result.Next(ctx) {
			row, err := recordToRow(result.Record())
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return gateway.StructuralResult{}, fmt.Errorf("graph backend: search: %w", err)
	}
	rows, _ := rowsAny.([]relRow)

	rels := make([]gateway.StructuralRelationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, gateway.StructuralRelationship{
			Source:      row.source,
			Relation:    row.rel,
			Target:      row.target,
			Path:        row.path,
			Explanation: fmt.Sprintf("%s %s %s", row.source, row.rel, row.target),
		})
	}

	summary := ""
	if len(rels) > 0 {
		summary = fmt.Sprintf("%d structural relationships", len(rels))
	}
	return gateway.StructuralResult{Summary: summary, Relationships: rels}, nil
}

func recordToRow(rec *neo4j.Record) (relRow, error) {
	source, ok := rec.Get("source")
	if !ok {
		return relRow{}, fmt.Errorf("graph backend: missing source column")
	}
	relation, ok := rec.Get("relation")
	if !ok {
		return relRow{}, fmt.Errorf("graph backend: missing relation column")
	}
	target, ok := rec.Get("target")
	if !ok {
		return relRow{}, fmt.Errorf("graph backend: missing target column")
	}
	pathVal, _ := rec.Get("path")

	path := []string{}
	if items, ok := pathVal.([]any); ok {
		for _, v := range items {
			if s, ok := v.(string); ok {
				path = append(path, s)
			}
		}
	}

	sourceStr, _ := source.(string)
	relationStr, _ := relation.(string)
	targetStr, _ := target.(string)
	return relRow{source: sourceStr, rel: relationStr, target: targetStr, path: path}, nil
}
