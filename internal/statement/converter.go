package statement

import (
	"bytes"
	"fmt"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/internal/scraper"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- Headings, lists and tables map structurally (GFM tables)
- Sample input and output blocks stay verbatim as code blocks
- Links and images are preserved as-is (no resolution)
- Scripts, styles, comments and empty containers are dropped first
- DOM order preserved
*/

type Converter struct {
	metadataSink metadata.MetadataSink
}

func NewConverter(metadataSink metadata.MetadataSink) *Converter {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	return &Converter{
		metadataSink: metadataSink,
	}
}

func (c *Converter) Convert(st scraper.Statement) (Document, failure.ClassifiedError) {
	doc, err := convert(st)
	if err != nil {
		c.metadataSink.RecordError(
			time.Now(),
			"statement",
			"Converter.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{},
		)
		return Document{}, err
	}
	return doc, nil
}

// Render returns the file form of doc: the title, the problem address and
// the statement body.
func Render(doc Document, problemURL string) []byte {
	var buf bytes.Buffer
	if doc.title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", doc.title)
	}
	if problemURL != "" {
		fmt.Fprintf(&buf, "Source: <%s>\n\n", problemURL)
	}
	buf.Write(bytes.TrimSpace(doc.markdown))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// convert is a stateless pure function over the statement node.
func convert(st scraper.Statement) (Document, *ConversionError) {
	if st.Node == nil {
		return Document{}, &ConversionError{
			Message:   "cannot convert nil HTML node",
			Retryable: false,
			Cause:     ErrCauseNilNode,
		}
	}

	sanitize(st.Node)

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertNode(st.Node)
	if err != nil {
		return Document{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewDocument(st.Title, markdown, extractImageRefs(st.Node)), nil
}

func extractImageRefs(node *html.Node) []string {
	var refs []string
	goquery.NewDocumentFromNode(node).Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			refs = append(refs, src)
		}
	})
	return refs
}
