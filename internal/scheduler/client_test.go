package scheduler

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type schedulerConfig struct {
	redisURL    string
	queue       string
	concurrency int
}

func (c schedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c schedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int  { return c.concurrency }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestEnqueueInitialTouchWritesTask(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(schedulerConfig{redisURL: "redis://" + srv.Addr(), queue: "leads"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	tenantID := uuid.New()
	leadID := uuid.New()
	if err := client.EnqueueInitialTouch(context.Background(), tenantID, leadID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var taskKeys []string
	for _, key := range srv.Keys() {
		if strings.HasPrefix(key, "asynq:{leads}:") {
			taskKeys = append(taskKeys, key)
		}
	}
	if len(taskKeys) == 0 {
		t.Fatalf("expected task keys in the leads queue, got %v", srv.Keys())
	}

	// The stored task message carries the lead this nudge is for.
	var found bool
	for _, key := range taskKeys {
		if srv.Exists(key) && srv.Type(key) == "hash" {
			if strings.Contains(srv.HGet(key, "msg"), leadID.String()) {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("no stored task message mentions lead %s", leadID)
	}
}

func TestNilClientEnqueueIsNoOp(t *testing.T) {
	var client *Client
	if err := client.EnqueueInitialTouch(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("nil client enqueue should be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client close should be a no-op, got %v", err)
	}
}
