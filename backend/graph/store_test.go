package graph

import "github.com/kbgateway/kbgateway/orchestrator"

var _ orchestrator.StructuralBackend = (*Store)(nil)
