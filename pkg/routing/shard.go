// Package routing maps tenants onto a fixed set of sharded task queues.
//
// Routing must be stable across processes and releases: the same tenant id
// and shard count always produce the same queue name. A cryptographic hash
// is used instead of the runtime's map hash, which is seeded per process.
package routing

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// QueueKind separates tenant lifecycle work from system-wide jobs.
type QueueKind string

const (
	KindLifecycle QueueKind = "lifecycle"
	KindSystem    QueueKind = "system"
)

// TaskRoute is the routing decision for one unit of work.
type TaskRoute struct {
	QueueName      string
	Shard          int
	FairnessKey    string
	FairnessWeight float32
}

// Route computes the task queue for a tenant's work. fairnessWeight comes
// from the tenant's plan (see domain.TenantExecutionContext); the fairness
// key is the tenant id so one tenant's burst cannot starve the shard.
func Route(tenantID, prefix string, shardCount int, kind QueueKind, fairnessWeight float32) (TaskRoute, error) {
	if tenantID == "" {
		return TaskRoute{}, fmt.Errorf("routing: tenant id is empty")
	}
	if shardCount < 1 {
		return TaskRoute{}, fmt.Errorf("routing: shard count must be >= 1, got %d", shardCount)
	}

	shard := int(hashLow32(tenantID) % uint32(shardCount))
	return TaskRoute{
		QueueName:      QueueName(prefix, kind, shard),
		Shard:          shard,
		FairnessKey:    tenantID,
		FairnessWeight: fairnessWeight,
	}, nil
}

// SystemRoute routes system-wide jobs. They always land on shard 0 and
// carry no fairness weighting.
func SystemRoute(prefix string, kind QueueKind) TaskRoute {
	return TaskRoute{
		QueueName: QueueName(prefix, kind, 0),
		Shard:     0,
	}
}

// QueueName renders the queue name for a shard: "{prefix}.{kind}.{NN}".
func QueueName(prefix string, kind QueueKind, shard int) string {
	return fmt.Sprintf("%s.%s.%02d", prefix, kind, shard)
}

// hashLow32 returns the low 32 bits of the big-endian SHA-256 digest of
// the tenant id.
func hashLow32(tenantID string) uint32 {
	sum := sha256.Sum256([]byte(tenantID))
	return binary.BigEndian.Uint32(sum[len(sum)-4:])
}
