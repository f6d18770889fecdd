package browser

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunBatches feeds items through short-lived sessions: at most perContext
// queries run on one session before it is torn down and rebuilt, with a
// randomized sleep between batches. A failing query is retried once on a
// fresh session; a second failure is surfaced to the handler via retryErr
// so the caller can record it — no query failure stops the batch.
func RunBatches[T any](
	ctx context.Context,
	f *Factory,
	items []T,
	perContext, minDelayMS, maxDelayMS int,
	fn func(s *Session, item T) error,
	onError func(item T, err error),
) error {
	if perContext <= 0 {
		perContext = 1
	}

	var session *Session
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	used := 0
	rotate := func() error {
		if session != nil {
			session.Close()
			session = nil
			Pause(minDelayMS, maxDelayMS)
		}
		s, err := f.NewSession(ctx)
		if err != nil {
			return err
		}
		session = s
		used = 0
		return nil
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if session == nil || used >= perContext {
			if err := rotate(); err != nil {
				return err
			}
		}

		err := fn(session, item)
		used++
		if err == nil {
			continue
		}

		zap.L().Warn("query failed, retrying on fresh context", zap.Error(err))
		if rerr := rotate(); rerr != nil {
			return rerr
		}
		err = fn(session, item)
		used++
		if err != nil {
			onError(item, err)
		}
	}

	return nil
}

// RunShards distributes items round-robin across n concurrent workers,
// each rotating its own sessions via RunBatches. fn and onError must be
// safe for concurrent use when n > 1.
func RunShards[T any](
	ctx context.Context,
	f *Factory,
	items []T,
	shards, perContext, minDelayMS, maxDelayMS int,
	fn func(s *Session, item T) error,
	onError func(item T, err error),
) error {
	if shards <= 1 || len(items) <= 1 {
		return RunBatches(ctx, f, items, perContext, minDelayMS, maxDelayMS, fn, onError)
	}
	if shards > len(items) {
		shards = len(items)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		var shard []T
		for j := i; j < len(items); j += shards {
			shard = append(shard, items[j])
		}
		g.Go(func() error {
			return RunBatches(ctx, f, shard, perContext, minDelayMS, maxDelayMS, fn, onError)
		})
	}
	return g.Wait()
}
