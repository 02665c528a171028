package pipeline

import (
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
)

// EventKind identifies a pipeline notification.
type EventKind int

const (
	// EventOperatorsChanged follows every add, remove, move and rename.
	EventOperatorsChanged EventKind = iota + 1
	// EventParameterChanged follows a successful parameter write.
	EventParameterChanged
	// EventImageProduced follows a successful run.
	EventImageProduced
	// EventOperatorFailed follows a run stopped by a failing operator.
	EventOperatorFailed
	// EventConfigFailed is emitted by callers when a configuration could not be loaded.
	EventConfigFailed
)

func (k EventKind) String() string {
	switch k {
	case EventOperatorsChanged:
		return "operators_changed"
	case EventParameterChanged:
		return "parameter_changed"
	case EventImageProduced:
		return "image_produced"
	case EventOperatorFailed:
		return "operator_failed"
	case EventConfigFailed:
		return "config_failed"
	default:
		return "unknown"
	}
}

// Event is a notification delivered synchronously to listeners.
type Event struct {
	Value   any
	Err     error
	Context *model.Context
	Param   string
	Stages  []model.StageInfo
	Image   mat.Mat
	Stage   model.StageInfo
	Kind    EventKind
}

// Listener receives pipeline events.
type Listener interface {
	OnEvent(ev Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnEvent(ev Event) { f(ev) }

// AddListener registers l for subsequent events.
func (p *Pipeline) AddListener(l Listener) {
	if l != nil {
		p.listeners = append(p.listeners, l)
	}
}

// Emit delivers ev to every listener in registration order.
func (p *Pipeline) Emit(ev Event) {
	for _, l := range p.listeners {
		l.OnEvent(ev)
	}
}

func (p *Pipeline) emitOperatorsChanged() {
	p.Emit(Event{Kind: EventOperatorsChanged, Stages: p.Stages()})
}
