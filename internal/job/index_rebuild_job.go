package job

import "context"

type indexRebuilder interface {
	Rebuild(ctx context.Context) error
}

// IndexRebuildJob refreshes the similarity index from the stored corpus.
type IndexRebuildJob struct {
	index indexRebuilder
}

func NewIndexRebuildJob(index indexRebuilder) *IndexRebuildJob {
	return &IndexRebuildJob{index: index}
}

func (j *IndexRebuildJob) Name() string {
	return "index_rebuild"
}

func (j *IndexRebuildJob) Run(ctx context.Context) error {
	if j.index == nil {
		return nil
	}
	return j.index.Rebuild(ctx)
}
