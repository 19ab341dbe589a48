package mcp

import "github.com/kbgateway/kbgateway/gateway"

// SemanticResource is a canned semantic-evidence fixture, scoped to a
// project the way a real vector-store payload would be.
type SemanticResource struct {
	Project string
	Match   gateway.SemanticMatch
}

// StructuralResource is a canned structural-evidence fixture.
type StructuralResource struct {
	Project      string
	Relationship gateway.StructuralRelationship
}
