// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package archive is the gorm-backed metrics archive: a durable, queryable
home for QueryMetric records beyond the Persistent State Store's 7-day KV
TTL. The confidence tuner reads its 7-day window straight out of the KV
store; archive exists for operators who need to look further back.

Schema migrations live under internal/migration (postgres/mysql/sqlite,
applied via the `kbgateway migrate` subcommand); archive itself only opens
a *gorm.DB and reads/writes rows.
*/
package archive
