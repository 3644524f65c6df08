// Package pipeline runs one chart extraction: query rows, normalize, aggregate,
// assemble statistics and hand both documents to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"modelcharts/internal/config"
	"modelcharts/internal/models"
)

// Run-level errors.
var (
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrEmptyResult         = errors.New("no usable records")
	ErrMissingDependency   = errors.New("runner needs a source opener and a sink")
)

// Query names requested from a RowSource.
const (
	QueryExtract = config.QueryExtract
	QueryStat    = config.QueryStat
)

// RowSource yields raw rows for a named query.
type RowSource interface {
	Query(ctx context.Context, name string) ([]models.RawRecord, error)
	Close() error
}

// SourceOpener connects to a row source. It is called once per run.
type SourceOpener func(ctx context.Context) (RowSource, error)

// Sink persists the chart document and the statistics report of one run.
type Sink interface {
	Write(ctx context.Context, doc *models.ChartDocument, report models.StatisticsReport) error
}

// ResourceError reports a failed source or sink operation. It matches
// ErrResourceUnavailable with errors.Is.
type ResourceError struct {
	Err      error
	Resource string
	Op       string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Resource, e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is makes every ResourceError match ErrResourceUnavailable.
func (e *ResourceError) Is(target error) bool {
	return target == ErrResourceUnavailable
}
