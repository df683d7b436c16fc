package similarity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// CorpusLoader supplies the full current corpus for a rebuild.
type CorpusLoader func(ctx context.Context) ([]Document, error)

// Holder serves queries from the latest fully built index. Rebuilds are
// serialized and published with a single pointer swap.
type Holder struct {
	current     atomic.Pointer[Index]
	rebuildMu   sync.Mutex
	load        CorpusLoader
	maxFeatures int
	onRebuild   func(docs int, elapsed time.Duration)
}

func NewHolder(load CorpusLoader, maxFeatures int) *Holder {
	h := &Holder{load: load, maxFeatures: maxFeatures}
	h.current.Store(Build(nil, maxFeatures))
	return h
}

// OnRebuild registers a hook invoked after every successful rebuild.
func (h *Holder) OnRebuild(fn func(docs int, elapsed time.Duration)) {
	h.onRebuild = fn
}

func (h *Holder) Rebuild(ctx context.Context) error {
	h.rebuildMu.Lock()
	defer h.rebuildMu.Unlock()
	start := time.Now()
	docs, err := h.load(ctx)
	if err != nil {
		return err
	}
	idx := Build(docs, h.maxFeatures)
	h.current.Store(idx)
	elapsed := time.Since(start)
	logutil.GetLogger(ctx).Info("similarity index rebuilt",
		zap.Int("documents", len(docs)),
		zap.Int("vocabulary", len(idx.vocab)),
		zap.Duration("duration", elapsed),
	)
	if h.onRebuild != nil {
		h.onRebuild(len(docs), elapsed)
	}
	return nil
}

func (h *Holder) Query(text string, k int) []Match {
	return h.current.Load().Query(text, k)
}

func (h *Holder) Stats() Stats {
	return h.current.Load().Stats()
}
