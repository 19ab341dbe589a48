package vector

import "github.com/kbgateway/kbgateway/gateway"

// Two historical indexers wrote Qdrant payloads in different shapes (spec
// §9: "duck-typed payloads... disambiguate by presence of discriminator
// fields and convert to one internal shape before leaving the adapter").
//
// Legacy shape (flat):
//
//	{"content": "...", "source": "...", "kind": "code", "line_from": 10,
//	 "line_to": 20, "language": "go"}
//
// Chunk shape (nested, newer indexer):
//
//	{"chunk": {"text": "...", "path": "...", "type": "code",
//	           "range": {"start": 10, "end": 20}, "lang": "go"}}
func normalizePayload(payload map[string]any, score float64) gateway.SemanticMatch {
	if chunk, ok := payload["chunk"].(map[string]any); ok {
		return normalizeChunkPayload(chunk, score)
	}
	return normalizeFlatPayload(payload, score)
}

func normalizeFlatPayload(payload map[string]any, score float64) gateway.SemanticMatch {
	m := gateway.SemanticMatch{Score: score, Kind: gateway.ContentCode}
	if v, ok := payload["content"].(string); ok {
		m.Content = v
	}
	if v, ok := payload["source"].(string); ok {
		m.Source = v
	}
	if v, ok := payload["kind"].(string); ok {
		m.Kind = contentKind(v)
	}
	if v, ok := asInt(payload["line_from"]); ok {
		m.LineFrom = v
	}
	if v, ok := asInt(payload["line_to"]); ok {
		m.LineTo = v
	}
	if v, ok := payload["language"].(string); ok {
		m.Language = v
	}
	return m
}

func normalizeChunkPayload(chunk map[string]any, score float64) gateway.SemanticMatch {
	m := gateway.SemanticMatch{Score: score, Kind: gateway.ContentCode}
	if v, ok := chunk["text"].(string); ok {
		m.Content = v
	}
	if v, ok := chunk["path"].(string); ok {
		m.Source = v
	}
	if v, ok := chunk["type"].(string); ok {
		m.Kind = contentKind(v)
	}
	if rng, ok := chunk["range"].(map[string]any); ok {
		if v, ok := asInt(rng["start"]); ok {
			m.LineFrom = v
		}
		if v, ok := asInt(rng["end"]); ok {
			m.LineTo = v
		}
	}
	if v, ok := chunk["lang"].(string); ok {
		m.Language = v
	}
	return m
}

func contentKind(v string) gateway.ContentKind {
	switch v {
	case "doc", "document":
		return gateway.ContentDoc
	case "comment":
		return gateway.ContentComment
	default:
		return gateway.ContentCode
	}
}

// asInt handles the fact that encoding/json decodes numbers into
// map[string]any as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
