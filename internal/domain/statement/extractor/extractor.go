// Package extractor runs the statement pipeline: normalize, split on account
// banners, classify, extract fields and transactions, and assemble one
// record per account.
package extractor

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/assembler"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/classifier"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/fields"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/ledger"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
)

// ErrMalformedInput is returned for input that is not a UTF-8 byte string.
var ErrMalformedInput = errors.New("malformed input")

// IDGenerator produces link reference numbers.
type IDGenerator func() string

// RandomID returns a version 4 UUID drawn from a source seeded for this call
// only.
func RandomID() string {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return uuid.NewString()
	}
	id, err := uuid.NewRandomFromReader(rand.NewChaCha8(seed))
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Extractor converts statement text into normalized records. It holds only
// read-only tables and is safe for concurrent use.
type Extractor struct {
	classifier *classifier.Classifier
	catalog    *fields.Catalog
	tagger     *normalizer.ChannelTagger
	newID      IDGenerator
	tolerance  float64
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithIDGenerator replaces the link reference generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Extractor) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithClassifier replaces the document-type classifier.
func WithClassifier(c *classifier.Classifier) Option {
	return func(e *Extractor) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithCatalog replaces the field rule catalog.
func WithCatalog(c *fields.Catalog) Option {
	return func(e *Extractor) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithChannelTagger replaces the narration channel tagger.
func WithChannelTagger(t *normalizer.ChannelTagger) Option {
	return func(e *Extractor) {
		if t != nil {
			e.tagger = t
		}
	}
}

// WithRowTolerance sets the vertical distance within which positioned
// fragments share a row. Zero or less keeps the default.
func WithRowTolerance(t float64) Option {
	return func(e *Extractor) {
		if t > 0 {
			e.tolerance = t
		}
	}
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor with the default tables.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		classifier: classifier.NewDefault(),
		catalog:    fields.DefaultCatalog(),
		tagger:     normalizer.NewChannelTagger(),
		newID:      RandomID,
		tolerance:  ledger.DefaultRowTolerance,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract converts text into a normalized record. It never fails: text that
// is empty or not a statement yields an all-default account.
func (e *Extractor) Extract(text string) *model.NormalizedRecord {
	return e.run(text, nil)
}

// ExtractBytes validates raw bytes before extraction. A nil slice or invalid
// UTF-8 returns an error record and ErrMalformedInput.
func (e *Extractor) ExtractBytes(data []byte) (*model.NormalizedRecord, error) {
	if data == nil {
		err := fmt.Errorf("%w: no input", ErrMalformedInput)
		return model.ErrorRecord(err), err
	}
	if !utf8.Valid(data) {
		err := fmt.Errorf("%w: invalid UTF-8", ErrMalformedInput)
		return model.ErrorRecord(err), err
	}
	return e.Extract(string(data)), nil
}

// ExtractFragments converts a positioned page layout. Transactions are read
// through the table's column positions when the statement holds a single
// account.
func (e *Extractor) ExtractFragments(frags []ledger.Fragment) *model.NormalizedRecord {
	rows := ledger.GroupRows(frags, e.tolerance)
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.Text()
	}
	return e.run(strings.Join(lines, "\n"), frags)
}

func (e *Extractor) run(text string, frags []ledger.Fragment) *model.NormalizedRecord {
	doc := normalizer.Normalize(text)
	preamble, segments := assembler.Split(doc.Text)

	var fallback fields.Values
	if preamble != "" {
		fallback = e.catalog.Extract(preamble, e.classifier.Classify(preamble))
	}
	if len(segments) > 1 {
		frags = nil
	}

	accounts := make([]model.AccountRecord, 0, len(segments))
	for _, seg := range segments {
		accounts = append(accounts, e.account(seg, fallback, frags))
	}

	e.logger.Debug("statement extracted",
		slog.Int("accounts", len(accounts)),
		slog.Int("characters", len(doc.Text)),
	)
	return model.NewRecord(accounts...)
}

func (e *Extractor) account(seg assembler.Segment, fallback fields.Values, frags []ledger.Fragment) model.AccountRecord {
	t := seg.Type
	if !seg.HasBanner() {
		t = e.classifier.Classify(seg.Text)
	}

	values := e.catalog.Extract(seg.Text, t)
	lines := normalizer.Normalize(seg.Text).Lines

	ledgerOpts := []ledger.Option{
		ledger.WithInvestment(t.IsInvestment()),
		ledger.WithChannelTagger(e.tagger),
		ledger.WithRowTolerance(e.tolerance),
	}
	var txns model.TransactionLedger
	if len(frags) > 0 {
		txns = ledger.ExtractFragments(frags, ledgerOpts...)
	} else {
		txns = ledger.Extract(lines, ledgerOpts...)
	}

	var holdings []model.Holding
	if t.IsInvestment() {
		holdings = fields.Holdings(lines, values)
	}

	institution := normalizer.Coalesce(
		seg.Institution,
		values.Get(fields.FieldInstitution),
		e.classifier.Institution(seg.Text, t),
	)
	link := normalizer.Coalesce(values.Get(fields.FieldLinkReference), e.newID())

	e.logger.Debug("account assembled",
		slog.String("instrument_type", string(t)),
		slog.String("institution", institution),
		slog.Bool("banner", seg.HasBanner()),
		slog.Int("transactions", len(txns.Entries)),
		slog.Int("holdings", len(holdings)),
		slog.Bool("balance_reconstructed", txns.RunningBalanceReconstructed),
	)

	return assembler.Assemble(t, values, txns,
		assembler.WithInstitution(institution),
		assembler.WithAccountID(seg.AccountID),
		assembler.WithLinkReference(link),
		assembler.WithFallback(fallback),
		assembler.WithHoldings(holdings),
	)
}
