package types

// RawKind represents the shape of a raw attribute value
type RawKind int

const (
	RawNumber RawKind = iota
	RawText
	RawEntries
)

// RawLogEntry represents one raw self-test log row before normalization
type RawLogEntry struct {
	Hours  int64  // power-on hours at which the test ran, 0 when unreported
	Status string // verbatim status text from the log page
}

// RawValue represents one raw attribute with its provenance
type RawValue struct {
	Kind    RawKind
	Number  int64
	Text    string
	Entries []RawLogEntry
	Source  string // command or JSON log page the value came from
}

// RawAttributeBag carries the protocol-specific raw attributes of one device.
// It is produced by an adapter and owned by the normalizer for a single
// normalization pass.
type RawAttributeBag struct {
	Device   string
	Protocol Protocol
	Attrs    map[string]RawValue
}

// NewRawAttributeBag creates an empty bag for a device
func NewRawAttributeBag(device string, protocol Protocol) *RawAttributeBag {
	return &RawAttributeBag{
		Device:   device,
		Protocol: protocol,
		Attrs:    make(map[string]RawValue),
	}
}

// PutNumber stores a numeric attribute
func (b *RawAttributeBag) PutNumber(key string, v int64, source string) {
	b.Attrs[key] = RawValue{Kind: RawNumber, Number: v, Source: source}
}

// PutText stores a text attribute
func (b *RawAttributeBag) PutText(key, v, source string) {
	b.Attrs[key] = RawValue{Kind: RawText, Text: v, Source: source}
}

// PutEntries stores a log-entry list attribute
func (b *RawAttributeBag) PutEntries(key string, entries []RawLogEntry, source string) {
	b.Attrs[key] = RawValue{Kind: RawEntries, Entries: entries, Source: source}
}

// Has reports whether a key is present in the bag
func (b *RawAttributeBag) Has(key string) bool {
	_, ok := b.Attrs[key]
	return ok
}

// Number returns a numeric attribute value
func (b *RawAttributeBag) Number(key string) (int64, bool) {
	v, ok := b.Attrs[key]
	if !ok || v.Kind != RawNumber {
		return 0, false
	}
	return v.Number, true
}

// Text returns a text attribute value
func (b *RawAttributeBag) Text(key string) (string, bool) {
	v, ok := b.Attrs[key]
	if !ok || v.Kind != RawText {
		return "", false
	}
	return v.Text, true
}

// Entries returns a log-entry list attribute value
func (b *RawAttributeBag) Entries(key string) ([]RawLogEntry, bool) {
	v, ok := b.Attrs[key]
	if !ok || v.Kind != RawEntries {
		return nil, false
	}
	return v.Entries, true
}
