// Package report turns a finished session into human and machine readable
// artifacts. It is the only place where absent values become "N/A".
package report

import (
	"context"
	"errors"
	"time"

	"github.com/bilal/wifiwatch/internal/model"
)

// Generator consumes a session as it runs and once it ends.
type Generator interface {
	Begin(start time.Time) error
	Sample(s model.Sample) error
	Finish(ctx context.Context, summary model.SessionSummary, samples []model.Sample) error
}

// Multi fans calls out to every generator and joins their errors.
type Multi []Generator

func (m Multi) Begin(start time.Time) error {
	var errs []error
	for _, g := range m {
		errs = append(errs, g.Begin(start))
	}
	return errors.Join(errs...)
}

func (m Multi) Sample(s model.Sample) error {
	var errs []error
	for _, g := range m {
		errs = append(errs, g.Sample(s))
	}
	return errors.Join(errs...)
}

func (m Multi) Finish(ctx context.Context, summary model.SessionSummary, samples []model.Sample) error {
	var errs []error
	for _, g := range m {
		errs = append(errs, g.Finish(ctx, summary, samples))
	}
	return errors.Join(errs...)
}

// SessionDirName names the artifact directory after the capture start time.
func SessionDirName(start time.Time) string {
	return "report_" + start.Format("20060102_150405")
}
