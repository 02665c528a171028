// Package logging builds the command logger and reports pipeline events
// through it. The pipeline packages themselves never log.
package logging

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
)

// New creates a logger writing to out. format is "text" or "json".
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse log level %q", level)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	switch format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	return logger, nil
}

// Listener logs pipeline events.
type Listener struct {
	logger logrus.FieldLogger
}

// NewListener returns a pipeline listener logging to logger.
func NewListener(logger logrus.FieldLogger) *Listener {
	return &Listener{logger: logger}
}

func (l *Listener) OnEvent(ev pipeline.Event) {
	entry := l.logger.WithField("event", ev.Kind.String())

	switch ev.Kind {
	case pipeline.EventOperatorsChanged:
		entry.WithField("stages", len(ev.Stages)).Debug("pipeline changed")
	case pipeline.EventParameterChanged:
		entry.WithFields(logrus.Fields{
			"stage": ev.Stage.Name,
			"param": ev.Param,
			"value": ev.Value,
		}).Debug("parameter changed")
	case pipeline.EventImageProduced:
		fields := logrus.Fields{
			"rows":     ev.Image.Rows,
			"cols":     ev.Image.Cols,
			"channels": ev.Image.Channels,
		}

		if ev.Context != nil && ev.Context.Measure != nil {
			fields["elapsed"] = measure.Round(ev.Context.Measure.GetTotalDuration()).String()

			for _, report := range ev.Context.Stages {
				entry.WithFields(logrus.Fields{
					"stage":    report.Stage.Name,
					"type":     report.Stage.Type,
					"duration": measure.Round(report.Duration).String(),
					"notes":    report.Notes,
				}).Debug("stage done")
			}
		}

		entry.WithFields(fields).Info("image produced")
	case pipeline.EventOperatorFailed:
		entry.WithFields(logrus.Fields{
			"stage": ev.Stage.Name,
			"type":  ev.Stage.Type,
			"index": ev.Stage.Index,
		}).WithError(ev.Err).Error("operator failed")
	case pipeline.EventConfigFailed:
		entry.WithError(ev.Err).Error("configuration rejected")
	default:
		entry.Warn("unknown pipeline event")
	}
}

var _ pipeline.Listener = (*Listener)(nil)
