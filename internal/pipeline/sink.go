package pipeline

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/export"
	"github.com/joseph-ayodele/project-geotagger/internal/repository"
)

// Sink receives each finished record as soon as it is produced.
type Sink interface {
	Put(ctx context.Context, rec entity.MentionRecord) error
}

type SinkFunc func(ctx context.Context, rec entity.MentionRecord) error

func (f SinkFunc) Put(ctx context.Context, rec entity.MentionRecord) error { return f(ctx, rec) }

// JSONLSink writes records to a JSON Lines stream.
func JSONLSink(w *export.JSONLWriter) Sink {
	return SinkFunc(func(_ context.Context, rec entity.MentionRecord) error {
		return w.Write(rec)
	})
}

// RepositorySink upserts records into the mentions table.
func RepositorySink(repo repository.MentionRepository) Sink {
	return SinkFunc(func(ctx context.Context, rec entity.MentionRecord) error {
		_, err := repo.Upsert(ctx, rec)
		return err
	})
}

// Tee fans a record out to every non-nil sink and joins their errors.
func Tee(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	if len(live) == 1 {
		return live[0]
	}
	return SinkFunc(func(ctx context.Context, rec entity.MentionRecord) error {
		var errs []error
		for _, s := range live {
			if err := s.Put(ctx, rec); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
