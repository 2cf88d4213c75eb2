package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

const (
	rootElement    = "produtos"
	productElement = "produto"
)

// product mirrors one <produto> element of the feed.
type product struct {
	ID          string `xml:"id"`
	Title       string `xml:"titulo"`
	Category    string `xml:"categoria"`
	Price       string `xml:"preco"`
	Description string `xml:"descricao"`
	Image       string `xml:"img"`
}

func (p product) document() ingestion.Document {
	return ingestion.Document{
		ID:       strings.TrimSpace(p.ID),
		Name:     strings.TrimSpace(p.Image),
		Text:     p.Description,
		Title:    p.Title,
		Category: p.Category,
		Price:    p.Price,
	}
}

// XMLFile streams products from a <produtos> XML file.
type XMLFile struct {
	path string
}

func NewXMLFile(path string) *XMLFile {
	return &XMLFile{path: path}
}

func (f *XMLFile) Name() string { return "xml:" + f.path }

func (f *XMLFile) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", apperrors.ErrFeedUnavailable, f.path, err)
	}
	defer file.Close()
	return DecodeXML(ctx, file, fn)
}

// DecodeXML streams <produto> records from r. The root element must be
// <produtos>; an empty document or a different root is a feed failure.
func DecodeXML(ctx context.Context, r io.Reader, fn func(ingestion.Document) error) error {
	dec := xml.NewDecoder(r)
	root, err := nextStart(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty XML document", apperrors.ErrFeedUnavailable)
		}
		return fmt.Errorf("%w: parsing XML: %v", apperrors.ErrFeedUnavailable, err)
	}
	if root.Name.Local != rootElement {
		return fmt.Errorf("%w: wrong document type, root node %q != %q",
			apperrors.ErrFeedUnavailable, root.Name.Local, rootElement)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: parsing XML: %v", apperrors.ErrFeedUnavailable, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != productElement {
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("%w: skipping <%s>: %v", apperrors.ErrFeedUnavailable, start.Name.Local, err)
			}
			continue
		}
		var p product
		if err := dec.DecodeElement(&p, &start); err != nil {
			return fmt.Errorf("%w: decoding <%s>: %v", apperrors.ErrFeedUnavailable, productElement, err)
		}
		if err := fn(p.document()); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}
