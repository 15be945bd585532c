package cache

import (
	"context"
	"fmt"

	"github.com/thep2p/go-eth-rpcnode/internal/capability"
)

// FeedTaskName is the name the orchestrator spawns FeedCanonicalBlocks under.
const FeedTaskName = "cache canonical blocks task"

// FeedCanonicalBlocks applies every canonical chain update of provider to cache until the
// stream closes or ctx is cancelled, both of which return nil. A stream failure is
// returned so that the critical task supervisor can escalate it.
func FeedCanonicalBlocks(ctx context.Context, cache *EthStateCache, provider capability.Provider) error {
	updates := make(chan capability.CanonStateNotification, 16)
	sub := provider.SubscribeCanonState(updates)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				drain(cache, updates)
				return nil
			}
			return fmt.Errorf("canonical state stream failed: %w", err)
		case n := <-updates:
			cache.apply(n)
		}
	}
}

// drain applies updates that were delivered before the stream closed.
func drain(cache *EthStateCache, updates <-chan capability.CanonStateNotification) {
	for {
		select {
		case n := <-updates:
			cache.apply(n)
		default:
			return
		}
	}
}
