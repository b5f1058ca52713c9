package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Paragraph wraps a w:p element.
type Paragraph struct {
	el *etree.Element
}

// Runs returns the paragraph's direct w:r children in order.
func (p *Paragraph) Runs() []*Run {
	elems := p.el.SelectElements("w:r")
	out := make([]*Run, len(elems))
	for i, e := range elems {
		out[i] = &Run{el: e}
	}
	return out
}

// Text concatenates the text of every run.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs() {
		b.WriteString(r.Text())
	}
	return b.String()
}

// Run wraps a w:r element: a span of text with uniform formatting.
type Run struct {
	el *etree.Element
}

// Text returns the run's text. Tabs become '\t' and line breaks '\n'.
func (r *Run) Text() string {
	var b strings.Builder
	for _, child := range r.el.ChildElements() {
		if child.Space != "w" {
			continue
		}
		switch child.Tag {
		case "t":
			b.WriteString(child.Text())
		case "tab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SetText replaces the run's content with text and leaves its run properties
// (w:rPr) in place. A run holding a single w:t keeps that element; otherwise
// the content is rebuilt, with '\t' written as w:tab and '\n' as w:br.
func (r *Run) SetText(text string) {
	if t := r.soleText(); t != nil && !strings.ContainsAny(text, "\t\n") {
		setTextPreserve(t, text)
		return
	}

	for _, child := range r.el.ChildElements() {
		if child.Space == "w" && child.Tag == "rPr" {
			continue
		}
		r.el.RemoveChild(child)
	}

	var chunk strings.Builder
	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		setTextPreserve(r.el.CreateElement("w:t"), chunk.String())
		chunk.Reset()
	}
	for _, c := range text {
		switch c {
		case '\t':
			flush()
			r.el.CreateElement("w:tab")
		case '\n':
			flush()
			r.el.CreateElement("w:br")
		default:
			chunk.WriteRune(c)
		}
	}
	flush()
}

// soleText returns the run's w:t when it is the only content besides w:rPr.
func (r *Run) soleText() *etree.Element {
	var t *etree.Element
	for _, child := range r.el.ChildElements() {
		if child.Space != "w" {
			return nil
		}
		switch child.Tag {
		case "rPr":
		case "t":
			if t != nil {
				return nil
			}
			t = child
		default:
			return nil
		}
	}
	return t
}

func setTextPreserve(t *etree.Element, text string) {
	t.SetText(text)
	if text != strings.TrimSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
}

// Bold reports whether the run is directly formatted bold.
func (r *Run) Bold() bool {
	return r.toggle("b")
}

// Italic reports whether the run is directly formatted italic.
func (r *Run) Italic() bool {
	return r.toggle("i")
}

// SetBold turns direct bold formatting on or off.
func (r *Run) SetBold(on bool) {
	r.setToggle("b", on)
}

// SetItalic turns direct italic formatting on or off.
func (r *Run) SetItalic(on bool) {
	r.setToggle("i", on)
}

func (r *Run) toggle(tag string) bool {
	rPr := r.el.SelectElement("w:rPr")
	if rPr == nil {
		return false
	}
	e := rPr.SelectElement("w:" + tag)
	if e == nil {
		return false
	}
	switch strings.ToLower(e.SelectAttrValue("w:val", "true")) {
	case "0", "false", "off":
		return false
	}
	return true
}

func (r *Run) setToggle(tag string, on bool) {
	rPr := r.el.SelectElement("w:rPr")
	if rPr == nil {
		if !on {
			return
		}
		rPr = etree.NewElement("w:rPr")
		r.el.InsertChildAt(0, rPr)
	}
	if e := rPr.SelectElement("w:" + tag); e != nil {
		rPr.RemoveChild(e)
	}
	if on {
		rPr.CreateElement("w:" + tag)
	}
}
