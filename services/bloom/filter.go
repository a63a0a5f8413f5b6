// Package bloom implements a bloom filter over a Redis bitmap. Every call
// reads or writes all of an item's probe bits in a single MULTI/EXEC.
package bloom

import (
	"context"
	"fmt"
	"time"

	"socialfeed/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Filter tests and records membership in bitmaps addressed by key.
type Filter struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewFilter returns a Filter backed by client.
func NewFilter(client redis.Cmdable, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{client: client, logger: logger}
}

// MightContain reports whether item may have been added to key. A false
// result is definite. Backend failures are returned as database errors so
// callers can fall back to their slow path.
func (f *Filter) MightContain(ctx context.Context, key, item string, opts Options) (bool, error) {
	shape, err := ComputeShape(opts)
	if err != nil {
		return false, err
	}
	probes := indexes(item, shape)

	cmds, err := f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, idx := range probes {
			pipe.GetBit(ctx, key, int64(idx))
		}
		return nil
	})
	if err != nil {
		utils.BloomOperations.WithLabelValues("test", "error").Inc()
		return false, utils.NewDatabaseError("bloom.MightContain", err)
	}
	if len(cmds) != len(probes) {
		utils.BloomOperations.WithLabelValues("test", "error").Inc()
		return false, utils.NewDatabaseError("bloom.MightContain", nil)
	}

	for _, cmd := range cmds {
		bitCmd, ok := cmd.(*redis.IntCmd)
		if !ok {
			return false, utils.NewDatabaseError("bloom.MightContain",
				fmt.Errorf("unexpected reply type %T", cmd))
		}
		if bitCmd.Val() == 0 {
			utils.BloomOperations.WithLabelValues("test", "miss").Inc()
			return false, nil
		}
	}
	utils.BloomOperations.WithLabelValues("test", "hit").Inc()
	return true, nil
}

// Add sets item's probe bits in key.
func (f *Filter) Add(ctx context.Context, key, item string, opts Options) error {
	return f.add(ctx, key, item, opts, 0)
}

// AddWithTTL sets item's probe bits and applies ttl to the whole key in the
// same transaction. ttl must be positive.
func (f *Filter) AddWithTTL(ctx context.Context, key, item string, opts Options, ttl time.Duration) error {
	if ttl <= 0 {
		return utils.NewValidationError("bloom.Add", fmt.Sprintf("ttl must be positive, got %s", ttl))
	}
	return f.add(ctx, key, item, opts, ttl)
}

func (f *Filter) add(ctx context.Context, key, item string, opts Options, ttl time.Duration) error {
	shape, err := ComputeShape(opts)
	if err != nil {
		return err
	}
	probes := indexes(item, shape)

	cmds, err := f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, idx := range probes {
			pipe.SetBit(ctx, key, int64(idx), 1)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		utils.BloomOperations.WithLabelValues("add", "error").Inc()
		return utils.NewDatabaseError("bloom.Add", err)
	}
	if len(cmds) == 0 {
		utils.BloomOperations.WithLabelValues("add", "error").Inc()
		return utils.NewDatabaseError("bloom.Add", nil)
	}

	f.logger.Debug("bloom add",
		zap.String("key", key),
		zap.Uint64("bitSize", shape.BitSize),
		zap.Int("hashCount", shape.HashCount))
	utils.BloomOperations.WithLabelValues("add", "ok").Inc()
	return nil
}
