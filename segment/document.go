package segment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrMalformedDocument marks an import payload that failed shape
// validation. The caller's store is left untouched.
var ErrMalformedDocument = errors.New("malformed alignment document")

type (
	// Record is the interchange form of one segment. Times travel as
	// decimal seconds so an export/import round trip is exact.
	Record struct {
		Word  string          `json:"word" validate:"required"`
		Start decimal.Decimal `json:"start"`
		End   decimal.Decimal `json:"end"`
	}

	Document []Record
)

var validate = validator.New()

// Export renders the store as a document.
func (s Store) Export() Document {
	doc := make(Document, len(s))
	for i, seg := range s {
		doc[i] = Record{
			Word:  seg.Word,
			Start: decimal.NewFromFloat(seg.Start),
			End:   decimal.NewFromFloat(seg.End),
		}
	}
	return doc
}

// MarshalDocument serializes the store for download.
func (s Store) MarshalDocument() ([]byte, error) {
	b, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling alignment document: %w", err)
	}
	return b, nil
}

// UnmarshalDocument parses and validates an imported document, returning
// the replacement store. Anything that is not a list of well-formed
// records yields ErrMalformedDocument and no store.
func UnmarshalDocument(data []byte) (Store, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc.Store()
}

// Store validates the document and converts it back to a Store.
func (d Document) Store() (Store, error) {
	out := make(Store, len(d))
	for i, r := range d {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedDocument, i, err)
		}
		start := r.Start.InexactFloat64()
		end := r.End.InexactFloat64()
		if start < 0 || end < start {
			return nil, fmt.Errorf("%w: record %d has times [%v, %v]", ErrMalformedDocument, i, r.Start, r.End)
		}
		out[i] = Segment{Word: r.Word, Start: start, End: end}
	}
	return out, nil
}
