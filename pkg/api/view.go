package api

import (
	"fmt"
	"image"

	"svgraster/pkg/svg"
	"svgraster/pkg/viewport"
)

// View represents a named <view> element in a document.
type View struct {
	doc  *Document
	view svg.View
}

// ViewCount returns the number of <view> elements in the document.
func (d *Document) ViewCount() int {
	return len(d.info.Views)
}

// View returns the <view> element with the given id.
func (d *Document) View(id string) (*View, error) {
	for _, v := range d.svg.Views() {
		if v.ID == id {
			return &View{doc: d, view: v}, nil
		}
	}
	return nil, fmt.Errorf("view %q: %w", id, svg.ErrFragmentNotFound)
}

// Views returns every <view> element, sorted by id.
func (d *Document) Views() []*View {
	views := d.svg.Views()
	out := make([]*View, len(views))
	for i, v := range views {
		out[i] = &View{doc: d, view: v}
	}
	return out
}

// ID returns the view's element id.
func (v *View) ID() string {
	return v.view.ID
}

// ViewBox returns the view's own viewBox, or nil if it inherits the root's.
func (v *View) ViewBox() *svg.ViewBox {
	return v.view.ViewBox
}

// PreserveAspectRatio returns the view's own alignment, or nil if it
// inherits the root's.
func (v *View) PreserveAspectRatio() *svg.PreserveAspectRatio {
	return v.view.PreserveAspectRatio
}

// Resolve resolves the viewport through this view.
func (v *View) Resolve(opts RenderOptions) (viewport.Result, error) {
	opts.Fragment = v.view.ID
	return v.doc.Resolve(opts)
}

// Render renders the document through this view.
func (v *View) Render(opts RenderOptions) (*image.RGBA, error) {
	opts.Fragment = v.view.ID
	return v.doc.Render(opts)
}
