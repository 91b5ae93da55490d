// Package svg reads the parts of an SVG document that decide its geometry:
// the root element's size, viewBox and preserveAspectRatio, its <view>
// elements and element ids. Rendering of the content itself is left to the
// raster package.
package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"

	"svgraster/pkg/viewport"
)

// Namespace is the SVG namespace URI.
const Namespace = "http://www.w3.org/2000/svg"

var (
	ErrNotSVG                     = errors.New("document is not SVG")
	ErrInvalidLength              = errors.New("invalid length")
	ErrInvalidViewBox             = errors.New("invalid viewBox")
	ErrInvalidPreserveAspectRatio = errors.New("invalid preserveAspectRatio")
	ErrFragmentNotFound           = errors.New("fragment not found")
	ErrInvalidFragment            = errors.New("invalid fragment")
)

// DefaultViewport is the viewport percentages resolve against when no
// other is supplied.
var DefaultViewport = viewport.Size{Width: 400, Height: 400}

// View is a <view> element or an svgView() fragment.
type View struct {
	ID                  string
	ViewBox             *ViewBox
	PreserveAspectRatio *PreserveAspectRatio
}

// Document is a parsed SVG document.
type Document struct {
	source []byte

	Width               Length
	Height              Length
	ViewBox             *ViewBox
	PreserveAspectRatio PreserveAspectRatio
	Title               string

	views map[string]View
	ids   map[string]struct{}
}

// Parse reads an SVG document.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes reads an SVG document from a byte slice. The slice is kept by
// the document and must not be modified afterwards.
func ParseBytes(data []byte) (*Document, error) {
	doc := &Document{
		source: data,
		Width:  Percent(100),
		Height: Percent(100),
		views:  make(map[string]View),
		ids:    make(map[string]struct{}),
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	depth := 0
	rootSeen := false
	inTitle := false
	var title strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SVG: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if t.Name.Local != "svg" || (t.Name.Space != "" && t.Name.Space != Namespace) {
					return nil, fmt.Errorf("%w: root element is <%s>", ErrNotSVG, t.Name.Local)
				}
				if err := doc.readRoot(t); err != nil {
					return nil, err
				}
				rootSeen = true
				continue
			}
			if err := doc.readElement(t); err != nil {
				return nil, err
			}
			if depth == 2 && t.Name.Local == "title" && doc.Title == "" {
				inTitle = true
			}
		case xml.EndElement:
			if inTitle && depth == 2 {
				doc.Title = strings.TrimSpace(title.String())
				inTitle = false
			}
			depth--
		case xml.CharData:
			if inTitle {
				title.Write(t)
			}
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("%w: no root element", ErrNotSVG)
	}
	if depth != 0 {
		return nil, fmt.Errorf("failed to parse SVG: %w", io.ErrUnexpectedEOF)
	}
	return doc, nil
}

func (d *Document) readRoot(se xml.StartElement) error {
	for _, attr := range se.Attr {
		var err error
		switch attr.Name.Local {
		case "width":
			d.Width, err = ParseLength(attr.Value)
		case "height":
			d.Height, err = ParseLength(attr.Value)
		case "viewBox":
			var vb ViewBox
			vb, err = ParseViewBox(attr.Value)
			d.ViewBox = &vb
		case "preserveAspectRatio":
			d.PreserveAspectRatio, err = ParsePreserveAspectRatio(attr.Value)
		case "id":
			d.ids[attr.Value] = struct{}{}
		}
		if err != nil {
			return fmt.Errorf("svg %s: %w", attr.Name.Local, err)
		}
	}
	return nil
}

func (d *Document) readElement(se xml.StartElement) error {
	id := attrValue(se, "id")
	if id != "" {
		d.ids[id] = struct{}{}
	}
	if se.Name.Local != "view" || id == "" {
		return nil
	}

	v := View{ID: id}
	if s := attrValue(se, "viewBox"); s != "" {
		vb, err := ParseViewBox(s)
		if err != nil {
			return fmt.Errorf("view %q: %w", id, err)
		}
		v.ViewBox = &vb
	}
	if s := attrValue(se, "preserveAspectRatio"); s != "" {
		par, err := ParsePreserveAspectRatio(s)
		if err != nil {
			return fmt.Errorf("view %q: %w", id, err)
		}
		v.PreserveAspectRatio = &par
	}
	d.views[id] = v
	return nil
}

func attrValue(se xml.StartElement, name string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// Source returns the document bytes.
func (d *Document) Source() []byte {
	return d.source
}

// Size returns the intrinsic size, resolving percentages against vp.
// The result is not validated; viewport.Resolve rejects non-positive sizes.
func (d *Document) Size(vp viewport.Size) viewport.Size {
	return viewport.Size{
		Width:  d.Width.Pixels(vp.Width),
		Height: d.Height.Pixels(vp.Height),
	}
}

// Views returns the <view> elements sorted by id.
func (d *Document) Views() []View {
	views := make([]View, 0, len(d.views))
	for _, v := range d.views {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

// HasID reports whether an element with the given id exists.
func (d *Document) HasID(id string) bool {
	_, ok := d.ids[id]
	return ok
}
