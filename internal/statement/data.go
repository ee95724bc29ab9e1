package statement

// Document is a problem statement rendered as Markdown.
type Document struct {
	title     string
	markdown  []byte
	imageRefs []string
}

func NewDocument(title string, markdown []byte, imageRefs []string) Document {
	return Document{
		title:     title,
		markdown:  markdown,
		imageRefs: imageRefs,
	}
}

func (d *Document) Title() string {
	return d.title
}

func (d *Document) Markdown() []byte {
	return d.markdown
}

// ImageRefs lists image sources in document order. They are left
// unresolved; the Markdown links to them as found.
func (d *Document) ImageRefs() []string {
	return d.imageRefs
}
