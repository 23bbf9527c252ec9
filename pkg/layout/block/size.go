package block

import (
	"fmt"
)

// Size computes the Position spans of b and its descendants bottom-up.
// Orientation must already be set on every block.
func Size(b Block) {
	p := b.Pos()
	vertical := p.Orientation.IsVertical()
	switch b := b.(type) {
	case *LegPrimary:
		p.SpanH, p.SpanV = 1, 1
	case *FeederPrimary:
		p.SpanH, p.SpanV = 1, 1
	case *BodyPrimary:
		p.SpanH, p.SpanV = 1, len(b.Nodes)-1
		if !vertical {
			p.SpanH, p.SpanV = p.SpanV, p.SpanH
		}
	case *Serial:
		sizeChildren(b.Children)
		if vertical {
			p.SpanH, p.SpanV = maxH(b.Children), sumV(b.Children)
		} else {
			p.SpanH, p.SpanV = sumH(b.Children), maxV(b.Children)
		}
	case *BodyParallel:
		sizeChildren(b.Children)
		if vertical {
			p.SpanH, p.SpanV = sumH(b.Children), maxV(b.Children)
		} else {
			p.SpanH, p.SpanV = maxH(b.Children), sumV(b.Children)
		}
	case *LegParallel:
		children := Children(b)
		sizeChildren(children)
		switch {
		case b.Stacked:
			p.SpanH, p.SpanV = maxH(children), maxV(children)
		case vertical:
			p.SpanH, p.SpanV = sumH(children), maxV(children)
		default:
			p.SpanH, p.SpanV = maxH(children), sumV(children)
		}
	case *Undefined:
		sizeChildren(b.Children)
		p.SpanH, p.SpanV = max(1, sumH(b.Children)), max(1, maxV(b.Children))
	}
}

func sizeChildren(children []Block) {
	for _, c := range children {
		Size(c)
	}
}

func sumH(bs []Block) int {
	n := 0
	for _, b := range bs {
		n += b.Pos().SpanH
	}
	return n
}

func sumV(bs []Block) int {
	n := 0
	for _, b := range bs {
		n += b.Pos().SpanV
	}
	return n
}

func maxH(bs []Block) int {
	n := 0
	for _, b := range bs {
		n = max(n, b.Pos().SpanH)
	}
	return n
}

func maxV(bs []Block) int {
	n := 0
	for _, b := range bs {
		n = max(n, b.Pos().SpanV)
	}
	return n
}

// Place assigns grid positions to b's descendants, b itself being at (h, v).
// Serial children follow each other along the orientation axis; parallel
// children sit side by side across it, stacked legs share one position.
func Place(b Block, h, v int) {
	p := b.Pos()
	p.H, p.V = h, v
	vertical := p.Orientation.IsVertical()
	switch b := b.(type) {
	case *Serial:
		for _, c := range b.Children {
			Place(c, h, v)
			if vertical {
				v += c.Pos().SpanV
			} else {
				h += c.Pos().SpanH
			}
		}
	case *BodyParallel, *Undefined:
		for _, c := range Children(b) {
			Place(c, h, v)
			if vertical {
				h += c.Pos().SpanH
			} else {
				v += c.Pos().SpanV
			}
		}
	case *LegParallel:
		for _, c := range b.Children {
			Place(c, h, v)
			if b.Stacked {
				continue
			}
			if vertical {
				h += c.Pos().SpanH
			} else {
				v += c.Pos().SpanV
			}
		}
	}
}

// CheckSpans verifies span conservation over the block tree: serial blocks
// sum their children along their orientation axis and take the maximum
// across it, parallel blocks do the opposite, stacked legs take the maximum
// on both axes.
func CheckSpans(b Block) error {
	var err error
	Walk(b, func(x Block) {
		if err != nil {
			return
		}
		children := Children(x)
		if len(children) == 0 {
			return
		}
		p := x.Pos()
		vertical := p.Orientation.IsVertical()
		var wantH, wantV int
		switch x := x.(type) {
		case *Serial:
			if vertical {
				wantH, wantV = maxH(children), sumV(children)
			} else {
				wantH, wantV = sumH(children), maxV(children)
			}
		case *LegParallel:
			if x.Stacked {
				wantH, wantV = maxH(children), maxV(children)
				break
			}
			if vertical {
				wantH, wantV = sumH(children), maxV(children)
			} else {
				wantH, wantV = maxH(children), sumV(children)
			}
		case *BodyParallel:
			if vertical {
				wantH, wantV = sumH(children), maxV(children)
			} else {
				wantH, wantV = maxH(children), sumV(children)
			}
		case *Undefined:
			wantH, wantV = max(1, sumH(children)), max(1, maxV(children))
		}
		if p.SpanH != wantH || p.SpanV != wantV {
			err = fmt.Errorf("%T span (%d,%d), children give (%d,%d)", x, p.SpanH, p.SpanV, wantH, wantV)
		}
	})
	return err
}
