package entity

// PropertyKind enumerates the known representations of a currency property
type PropertyKind int

const (
	// PropertyUnrecognized is any representation the extractor does not understand
	PropertyUnrecognized PropertyKind = iota
	// PropertyNumber is a numeric provider-specific currency id
	PropertyNumber
	// PropertyLabel is a selectable option label
	PropertyLabel
	// PropertyText is free or computed text
	PropertyText
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyNumber:
		return "number"
	case PropertyLabel:
		return "label"
	case PropertyText:
		return "text"
	default:
		return "unrecognized"
	}
}

// PropertyValue is one interpretation of a currency property
type PropertyValue struct {
	Kind   PropertyKind
	Number float64
	Text   string
}

// CurrencyProperty is the decoded currency-identifying property of a record.
// RawType keeps the store's own type name for logging.
type CurrencyProperty struct {
	RawType string
	Number  *float64
	Label   *string
	Text    *string
}

// Values returns the populated interpretations in precedence order:
// number, label, text. A property with nothing populated yields a single
// unrecognized value.
func (p CurrencyProperty) Values() []PropertyValue {
	var values []PropertyValue
	if p.Number != nil {
		values = append(values, PropertyValue{Kind: PropertyNumber, Number: *p.Number})
	}
	if p.Label != nil {
		values = append(values, PropertyValue{Kind: PropertyLabel, Text: *p.Label})
	}
	if p.Text != nil {
		values = append(values, PropertyValue{Kind: PropertyText, Text: *p.Text})
	}
	if len(values) == 0 {
		values = append(values, PropertyValue{Kind: PropertyUnrecognized})
	}
	return values
}

// Record is a document-store entry whose rate property gets synchronized
type Record struct {
	ID       string
	Currency CurrencyProperty
}
