package pipeline

import "github.com/askiada/go-cvpipe/pkg/pipeline/measure"

type PipelineOption func(p *Pipeline)

// WithListener registers l for pipeline events.
func WithListener(l Listener) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.listeners = append(p.listeners, l)
		}
	}
}

// WithIntermediates keeps the output of every stage in the run context.
func WithIntermediates() PipelineOption {
	return func(p *Pipeline) {
		p.keepIntermediates = true
	}
}

// WithMeasure attaches a fresh measure to every run context, created by newMeasure.
func WithMeasure(newMeasure func() measure.Measure) PipelineOption {
	return func(p *Pipeline) {
		p.newMeasure = newMeasure
	}
}

// WithDefaultMeasure attaches a measure.DefaultMeasure to every run context.
func WithDefaultMeasure() PipelineOption {
	return WithMeasure(func() measure.Measure {
		return measure.NewDefaultMeasure()
	})
}
