package svg

import (
	"fmt"
	"strings"

	"svgraster/pkg/graphics"
	"svgraster/pkg/viewport"
)

// ParseViewSpec parses an svgView(...) fragment such as
// "svgView(viewBox(0,0,100,50);preserveAspectRatio(xMinYMin))".
// Specifications other than viewBox and preserveAspectRatio are ignored.
func ParseViewSpec(ref string) (View, error) {
	body, ok := strings.CutPrefix(ref, "svgView(")
	if !ok || !strings.HasSuffix(body, ")") {
		return View{}, fmt.Errorf("%w: %q", ErrInvalidFragment, ref)
	}
	body = strings.TrimSuffix(body, ")")

	var v View
	for _, spec := range strings.Split(body, ";") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		name, args, ok := strings.Cut(spec, "(")
		if !ok || !strings.HasSuffix(args, ")") {
			return View{}, fmt.Errorf("%w: %q", ErrInvalidFragment, spec)
		}
		args = strings.TrimSuffix(args, ")")

		switch name {
		case "viewBox":
			vb, err := ParseViewBox(args)
			if err != nil {
				return View{}, err
			}
			v.ViewBox = &vb
		case "preserveAspectRatio":
			par, err := ParsePreserveAspectRatio(args)
			if err != nil {
				return View{}, err
			}
			v.PreserveAspectRatio = &par
		}
	}
	return v, nil
}

// viewFor returns the view box and alignment selected by a fragment
// identifier. A nil view box means the document declares none.
func (d *Document) viewFor(ref string) (*ViewBox, PreserveAspectRatio, error) {
	vb, par := d.ViewBox, d.PreserveAspectRatio

	var view View
	switch {
	case ref == "":
		return vb, par, nil
	case strings.HasPrefix(ref, "svgView("):
		var err error
		view, err = ParseViewSpec(ref)
		if err != nil {
			return nil, PreserveAspectRatio{}, err
		}
	default:
		v, ok := d.views[ref]
		if !ok {
			if !d.HasID(ref) {
				return nil, PreserveAspectRatio{}, fmt.Errorf("%w: #%s", ErrFragmentNotFound, ref)
			}
			// Any other element is shown through the root viewport.
			return vb, par, nil
		}
		view = v
	}

	if view.ViewBox != nil {
		vb = view.ViewBox
	}
	if view.PreserveAspectRatio != nil {
		par = *view.PreserveAspectRatio
	}
	return vb, par, nil
}

// Fit returns the document's fit resolver for the fragment identifier ref
// (without the leading '#'). It reports hasBox=false when neither the
// document nor the fragment declares a view box.
func (d *Document) Fit(ref string) viewport.FitResolver {
	return viewport.FitFunc(func(width, height float64) (graphics.Matrix, bool, error) {
		vb, par, err := d.viewFor(ref)
		if err != nil {
			return graphics.Identity(), false, err
		}
		if vb == nil {
			return graphics.Identity(), false, nil
		}
		return ViewTransform(*vb, par, width, height), true, nil
	})
}
