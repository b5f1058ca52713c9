package docx

import (
	"archive/zip"

	"github.com/beevik/etree"
)

const (
	nsMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`

	rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
)

// New returns an empty document: the smallest package Word will open, with a
// body holding only its section properties.
func New() *Document {
	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := x.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsMain)
	body := root.CreateElement("w:body")
	body.CreateElement("w:sectPr")

	return &Document{
		parts: []part{
			{name: "[Content_Types].xml", method: zip.Deflate, data: []byte(contentTypesXML)},
			{name: "_rels/.rels", method: zip.Deflate, data: []byte(rootRelsXML)},
			{name: MainPart, method: zip.Deflate},
		},
		xml:  x,
		body: body,
	}
}

// AddParagraph appends a paragraph before the body's section properties.
// Non-empty text becomes the paragraph's first run.
func (d *Document) AddParagraph(text string) *Paragraph {
	p := etree.NewElement("w:p")
	if sectPr := d.body.SelectElement("w:sectPr"); sectPr != nil {
		d.body.InsertChildAt(sectPr.Index(), p)
	} else {
		d.body.AddChild(p)
	}

	para := &Paragraph{el: p}
	if text != "" {
		para.AddRun(text)
	}
	return para
}

// AddRun appends a run holding text.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{el: p.el.CreateElement("w:r")}
	r.SetText(text)
	return r
}
