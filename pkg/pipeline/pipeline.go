package pipeline

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
)

// Stage is a named operator of a pipeline.
type Stage struct {
	Operator operator.Operator
	Name     string
}

// Pipeline is an ordered sequence of uniquely named stages.
//
// A Pipeline is owned by a single caller: it is not safe for concurrent use.
type Pipeline struct {
	names             *nameGenerator
	newMeasure        func() measure.Measure
	stages            []Stage
	listeners         []Listener
	keepIntermediates bool
}

// New creates an empty pipeline.
func New(opts ...PipelineOption) *Pipeline {
	pipe := &Pipeline{
		names: newNameGenerator(),
	}

	for _, opt := range opts {
		opt(pipe)
	}

	return pipe
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Index returns the position of the named stage.
func (p *Pipeline) Index(name string) (int, bool) {
	for i, stage := range p.stages {
		if stage.Name == name {
			return i, true
		}
	}

	return -1, false
}

// Operator returns the operator of the named stage.
func (p *Pipeline) Operator(name string) (operator.Operator, bool) {
	idx, ok := p.Index(name)
	if !ok {
		return nil, false
	}

	return p.stages[idx].Operator, true
}

// Operators returns the stages in execution order. The slice is a copy; the
// operators are shared.
func (p *Pipeline) Operators() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Stages describes every stage in execution order.
func (p *Pipeline) Stages() []model.StageInfo {
	out := make([]model.StageInfo, len(p.stages))
	for i := range p.stages {
		out[i] = p.info(i)
	}

	return out
}

func (p *Pipeline) info(idx int) model.StageInfo {
	return model.StageInfo{Name: p.stages[idx].Name, Type: p.stages[idx].Operator.Type(), Index: idx}
}

func (p *Pipeline) checkIndex(idx int) error {
	if idx < 0 || idx >= len(p.stages) {
		return &IndexOutOfRangeError{Index: idx, Len: len(p.stages)}
	}

	return nil
}

func (p *Pipeline) taken(name string) bool {
	_, ok := p.Index(name)
	return ok
}

// Add appends op under nameHint, or under a unique name derived from it when
// nameHint is already used. An empty hint falls back to the operator type.
// It returns the name actually assigned.
func (p *Pipeline) Add(nameHint string, op operator.Operator) (string, error) {
	if op == nil {
		return "", ErrOperatorMustBeSet
	}

	if nameHint == "" {
		nameHint = op.Type()
	}

	if nameHint == "" {
		return "", ErrEmptyName
	}

	name := p.names.next(op.Type(), nameHint, p.taken)
	p.stages = append(p.stages, Stage{Name: name, Operator: op})
	p.names.commit(op.Type())

	p.emitOperatorsChanged()

	return name, nil
}

// Remove deletes the stage at index. Later stages shift down by one and keep
// their names.
func (p *Pipeline) Remove(index int) error {
	err := p.checkIndex(index)
	if err != nil {
		return err
	}

	p.stages = append(p.stages[:index], p.stages[index+1:]...)

	p.emitOperatorsChanged()

	return nil
}

// Move relocates the stage at src to dst, shifting the stages in between.
func (p *Pipeline) Move(src, dst int) error {
	err := p.checkIndex(src)
	if err != nil {
		return err
	}

	err = p.checkIndex(dst)
	if err != nil {
		return err
	}

	if src == dst {
		return nil
	}

	stage := p.stages[src]

	if src < dst {
		copy(p.stages[src:dst], p.stages[src+1:dst+1])
	} else {
		copy(p.stages[dst+1:src+1], p.stages[dst:src])
	}

	p.stages[dst] = stage

	p.emitOperatorsChanged()

	return nil
}

// Rename changes the name of the stage at index.
func (p *Pipeline) Rename(index int, name string) error {
	err := p.checkIndex(index)
	if err != nil {
		return err
	}

	if name == "" {
		return ErrEmptyName
	}

	if p.stages[index].Name == name {
		return nil
	}

	if p.taken(name) {
		return &DuplicateNameError{Name: name}
	}

	p.stages[index].Name = name

	p.emitOperatorsChanged()

	return nil
}

// NameAt returns the name of the stage at index.
func (p *Pipeline) NameAt(index int) (string, error) {
	err := p.checkIndex(index)
	if err != nil {
		return "", err
	}

	return p.stages[index].Name, nil
}

// SetParameter writes a parameter of the named stage. The new value is used by
// the next run.
func (p *Pipeline) SetParameter(stageName, paramName string, value any) error {
	idx, ok := p.Index(stageName)
	if !ok {
		return &UnknownStageError{Name: stageName}
	}

	err := p.stages[idx].Operator.SetParameter(paramName, value)
	if err != nil {
		return err
	}

	stored := value

	for _, v := range p.stages[idx].Operator.Parameters() {
		if v.Spec.Key() == paramName {
			stored = v.Value
		}
	}

	p.Emit(Event{Kind: EventParameterChanged, Stage: p.info(idx), Param: paramName, Value: stored})

	return nil
}

// Run executes the stages in order, each receiving the output of the previous
// one. The first failing operator stops the run: the returned error is an
// *OperatorFailedError and neither an image nor a context is returned.
func (p *Pipeline) Run(img mat.Mat) (mat.Mat, *model.Context, error) {
	var msr measure.Measure
	if p.newMeasure != nil {
		msr = p.newMeasure()
	}

	runCtx := model.NewContext(img, msr)
	start := time.Now()
	current := img

	for idx, stage := range p.stages {
		info := p.info(idx)
		runCtx.BeginStage(info)

		startFn := time.Now()
		out, err := stage.Operator.Apply(current, runCtx)
		elapsed := time.Since(startFn)

		if err == nil {
			err = validateOutput(out)
		}

		if err != nil {
			failure := &OperatorFailedError{Name: info.Name, Type: info.Type, Index: idx, Err: err}
			p.Emit(Event{Kind: EventOperatorFailed, Stage: info, Err: failure})

			return mat.Mat{}, nil, failure
		}

		runCtx.EndStage(elapsed, out, p.keepIntermediates)
		current = out
	}

	if msr != nil {
		msr.SetTotalDuration(time.Since(start))
	}

	p.Emit(Event{Kind: EventImageProduced, Image: current, Context: runCtx, Stages: p.Stages()})

	return current, runCtx, nil
}

func validateOutput(out mat.Mat) error {
	err := out.Validate()
	if err != nil {
		return errors.Wrap(ErrInvalidOutput, err.Error())
	}

	return nil
}
