package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

var (
	ErrNoViews = errors.New("build: no views added")
	ErrNoModel = errors.New("build: no input or view-model conversion")
)

// ViewFunc makes a view that consumes view-models until done is closed.
type ViewFunc[ViewModel any] func(done <-chan struct{}, models <-chan ViewModel) ViewComponent

// ViewBuilder wires a single data-model stream to several views sharing one view-model.
// The conversion runs once per input item, however many views there are.
type ViewBuilder[DataModel any, ViewModel any] struct {
	input       <-chan DataModel
	toViewModel func(DataModel) ViewModel
	viewFns     []ViewFunc[ViewModel]
	done        <-chan struct{}
}

func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the input stream and its view-model conversion.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	input <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.input = input
	vb.toViewModel = convert
	return vb
}

// WithView appends a view; Build returns views in the order they were appended.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	viewFn ViewFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.viewFns = append(vb.viewFns, viewFn)
	return vb
}

// WithContext stops every stage of the pipeline when @ctx is done. Without it the
// pipeline runs until the input closes.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

func (vb *ViewBuilder[DataModel, ViewModel]) Build() ([]ViewComponent, error) {
	if len(vb.viewFns) == 0 {
		return nil, ErrNoViews
	}
	if vb.input == nil || vb.toViewModel == nil {
		return nil, ErrNoModel
	}

	models := channerics.Broadcast(
		vb.done,
		channerics.Convert(vb.done, vb.input, vb.toViewModel),
		len(vb.viewFns))

	views := make([]ViewComponent, len(vb.viewFns))
	for i, viewFn := range vb.viewFns {
		views[i] = viewFn(vb.done, models[i])
	}
	return views, nil
}
