package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/perfectcircle/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then submission time ASC, then insertion order ASC.
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst.

// scoreScale controls fixed-point scaling from float64.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled >= math.MaxInt64 {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// key is the ordering key of a treap node.
type key struct {
	score scoreFP
	at    int64 // unix nanos of the submission
	seq   uint64
}

// less returns true if a should appear before b in the leaderboard.
func less(a, b key) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.at != b.at {
		return a.at < b.at
	}
	return a.seq < b.seq
}

type node struct {
	key   key
	rec   Record
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if less(nn.key, n.key) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{
			ID:          n.rec.ID,
			Name:        n.rec.Name,
			Score:       toFloat(n.key.score),
			SubmittedAt: n.rec.SubmittedAt,
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore keeps the leaderboard in memory with O(log n) expected inserts.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	ids  map[string]struct{}
	seq  uint64
	rng  *rand.Rand
	cfg  settings

	closed   bool
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a treap store with configuration options. The
// background metrics updater stops when ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &TreapStore{
		ids:      make(map[string]struct{}),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)), //nolint:gosec // treap priorities need no crypto randomness
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater. Later inserts fail with ErrClosed.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// Insert implements Store.Insert.
func (s *TreapStore) Insert(ctx context.Context, rec Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryInsertLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if _, ok := s.ids[rec.ID]; ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "duplicate")
		return ErrDuplicate
	}
	s.seq++
	nn := &node{
		key:  key{score: toFixedPoint(rec.Score), at: rec.SubmittedAt.UnixNano(), seq: s.seq},
		rec:  rec,
		prio: s.rng.Uint64(),
		size: 1,
	}
	s.root = insert(s.root, nn)
	s.ids[rec.ID] = struct{}{}
	count := len(s.ids)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(count)
	metrics.RecordLeaderboardUpdate()
	return nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, nsize(s.root)))
	collectTopN(s.root, n, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of stored records.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// startMetricsUpdater periodically publishes the record count.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
			}
		}
	}()
}
