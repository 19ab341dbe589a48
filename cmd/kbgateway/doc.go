// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main provides the Engineering Support Gateway's executable entry
point.

# Overview

cmd/kbgateway is the gateway's HTTP Edge: it wires the Query Orchestrator,
Conversation Controller, Provider Fallback Engine, Health & Recovery
Monitor, and Confidence Metering tuner behind a shared-API-key-guarded
HTTP server, plus a separate metrics port and a migrate subcommand for the
metrics archive.

# Core types

  - Server      — owns every long-lived component and the two
    internal/server.Manager instances (HTTP edge, metrics)
  - Middleware  — HTTP middleware signature func(http.Handler) http.Handler

# Capabilities

  - Subcommands: serve, migrate, version, health
  - Middleware chain: Recovery, RequestLogger, MetricsMiddleware,
    OTelTracing, RequestID, SecurityHeaders, RateLimiter (per client IP,
    preferring X-Forwarded-For), JWTAuth + AdminAPIKeyAuth (the shared
    API key is required everywhere; a valid admin JWT is an additional,
    not alternative, way to pass on /queue/stats)
  - Metrics server: separate port exposing /metrics (Prometheus)
  - Graceful shutdown: signal -> stop health monitor -> close metrics ->
    close HTTP -> shut down telemetry -> close store
  - Build-time injection: version, buildTime, gitCommit via ldflags
*/
package main
