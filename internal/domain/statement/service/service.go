// Package service orchestrates conversions: it reads text out of uploaded
// files, runs the extractor, and stores the resulting records.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/export"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/extractor"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/textsource"
	"github.com/FACorreiaa/fi-statement-converter/pkg/metrics"
	"github.com/FACorreiaa/fi-statement-converter/pkg/storage"
)

const tracerName = "github.com/FACorreiaa/fi-statement-converter/service"

// ErrEmptyUpload is returned for uploads without content.
var ErrEmptyUpload = errors.New("empty upload")

// TextSource reads the text of an uploaded file.
type TextSource interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (*textsource.Text, error)
}

// Upload is one file submitted for conversion.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Conversion is the stored result of converting one upload.
type Conversion struct {
	ID     uuid.UUID               `json:"id"`
	Name   string                  `json:"name"`
	Source string                  `json:"source"`
	Pages  int                     `json:"pages,omitempty"`
	Record *model.NormalizedRecord `json:"record"`
}

// BatchResult pairs an upload with its conversion or error.
type BatchResult struct {
	Name       string      `json:"name"`
	Conversion *Conversion `json:"conversion,omitempty"`
	Err        error       `json:"-"`
}

// Service converts uploads and keeps their records.
type Service struct {
	sources     TextSource
	extractor   *extractor.Extractor
	store       storage.Storage
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
	workers     int
	keepUploads bool
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records conversions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithWorkers sets the batch concurrency. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithKeepUploads stores the original file next to its record.
func WithKeepUploads(keep bool) Option {
	return func(s *Service) { s.keepUploads = keep }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a conversion service.
func New(sources TextSource, ex *extractor.Extractor, store storage.Storage, opts ...Option) *Service {
	s := &Service{
		sources:   sources,
		extractor: ex,
		store:     store,
		tracer:    otel.Tracer(tracerName),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	return s
}

// Convert reads the upload's text, extracts a record and stores it.
func (s *Service) Convert(ctx context.Context, up Upload) (*Conversion, error) {
	ctx, span := s.tracer.Start(ctx, "statement.Convert", trace.WithAttributes(
		attribute.String("file.name", up.Name),
		attribute.Int("file.size", len(up.Data)),
	))
	defer span.End()

	if len(up.Data) == 0 {
		err := fmt.Errorf("%w: %s", ErrEmptyUpload, up.Name)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	text, err := s.sources.Extract(ctx, up.Name, up.ContentType, up.Data)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SourceFailures.WithLabelValues(string(textsource.Sniff(up.Name, up.ContentType, up.Data))).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "text extraction failed")
		return nil, fmt.Errorf("read %s: %w", up.Name, err)
	}

	var rec *model.NormalizedRecord
	if len(text.Fragments) > 0 {
		rec = s.extractor.ExtractFragments(text.Fragments)
	} else {
		rec, err = s.extractor.ExtractBytes([]byte(text.Content))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "malformed text")
			return nil, fmt.Errorf("extract %s: %w", up.Name, err)
		}
	}

	conv := &Conversion{
		ID:     uuid.New(),
		Name:   up.Name,
		Source: text.Source,
		Pages:  text.Pages,
		Record: rec,
	}
	return s.finish(ctx, span, conv, up, start)
}

// ConvertText extracts a record from text the caller already has. Empty
// text yields the all-default record.
func (s *Service) ConvertText(ctx context.Context, name, text string) (*Conversion, error) {
	ctx, span := s.tracer.Start(ctx, "statement.ConvertText", trace.WithAttributes(
		attribute.Int("text.length", len(text)),
	))
	defer span.End()

	if name == "" {
		name = "statement.txt"
	}
	start := time.Now()
	rec, err := s.extractor.ExtractBytes([]byte(text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed text")
		return nil, err
	}

	conv := &Conversion{
		ID:     uuid.New(),
		Name:   name,
		Source: textsource.PlainSource{}.Name(),
		Record: rec,
	}
	up := Upload{Name: name, ContentType: "text/plain", Data: []byte(text)}
	return s.finish(ctx, span, conv, up, start)
}

func (s *Service) finish(ctx context.Context, span trace.Span, conv *Conversion, up Upload, start time.Time) (*Conversion, error) {
	if err := s.save(ctx, conv, up); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return nil, err
	}

	s.observe(conv, time.Since(start))
	span.SetAttributes(
		attribute.String("conversion.id", conv.ID.String()),
		attribute.String("conversion.source", conv.Source),
		attribute.Int("conversion.accounts", len(conv.Record.Accounts)),
	)
	return conv, nil
}

// ConvertBatch converts uploads concurrently. Results keep input order and
// one failing file does not stop the others.
func (s *Service) ConvertBatch(ctx context.Context, uploads []Upload) []BatchResult {
	results := make([]BatchResult, len(uploads))
	for i, up := range uploads {
		results[i].Name = up.Name
	}
	if len(uploads) == 0 {
		return results
	}

	jobs := make(chan int, len(uploads))
	var wg sync.WaitGroup

	workers := min(s.workers, len(uploads))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					results[i].Err = ctx.Err()
					continue
				default:
				}
				conv, err := s.Convert(ctx, uploads[i])
				results[i].Conversion = conv
				results[i].Err = err
			}
		}()
	}

	for i := range uploads {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch converted",
		slog.Int("files", len(uploads)),
		slog.Int("failed", failed),
		slog.Int("workers", workers),
	)
	return results
}

// Get loads a stored conversion.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Conversion, error) {
	rc, _, err := s.store.Get(ctx, storage.NamespaceRecords, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var conv Conversion
	if err := json.NewDecoder(rc).Decode(&conv); err != nil {
		return nil, fmt.Errorf("decode conversion %s: %w", id, err)
	}
	return &conv, nil
}

// Export writes a stored conversion in the given format.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format export.Format, w io.Writer) error {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return export.Write(w, conv.Record, format)
}

// List returns metadata for every stored conversion.
func (s *Service) List(ctx context.Context) ([]*storage.FileInfo, error) {
	return s.store.List(ctx, storage.NamespaceRecords)
}

func (s *Service) save(ctx context.Context, conv *Conversion, up Upload) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversion: %w", err)
	}

	labels := map[string]string{"source": conv.Source, "file": up.Name}
	if _, err := s.store.Put(ctx, storage.NamespaceRecords, storage.Object{
		ID:          conv.ID,
		Name:        recordName(up.Name),
		ContentType: "application/json",
		Labels:      labels,
	}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("store conversion: %w", err)
	}

	if !s.keepUploads {
		return nil
	}
	if _, err := s.store.Put(ctx, storage.NamespaceUploads, storage.Object{
		ID:          conv.ID,
		Name:        up.Name,
		ContentType: up.ContentType,
		Labels:      labels,
	}, bytes.NewReader(up.Data)); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}

func (s *Service) observe(conv *Conversion, elapsed time.Duration) {
	rec := conv.Record
	txns := 0
	for _, acc := range rec.Accounts {
		txns += len(acc.Transactions.Entries)
	}

	if empty(rec) {
		s.logger.Warn("conversion found no statement data",
			slog.String("id", conv.ID.String()),
			slog.String("file", conv.Name),
			slog.String("source", conv.Source),
		)
	} else {
		s.logger.Info("conversion completed",
			slog.String("id", conv.ID.String()),
			slog.String("file", conv.Name),
			slog.Int("accounts", len(rec.Accounts)),
			slog.Int("transactions", txns),
			slog.Duration("elapsed", elapsed),
		)
	}

	if s.metrics == nil {
		return
	}
	if empty(rec) {
		s.metrics.EmptyExtractions.Inc()
	}
	for _, acc := range rec.Accounts {
		s.metrics.Extractions.WithLabelValues(string(acc.InstrumentType), rec.Status).Inc()
	}
	s.metrics.Transactions.Observe(float64(txns))
	s.metrics.Duration.WithLabelValues(conv.Source).Observe(elapsed.Seconds())
}

// empty reports whether nothing beyond defaults was found.
func empty(rec *model.NormalizedRecord) bool {
	for _, acc := range rec.Accounts {
		if len(acc.Transactions.Entries) > 0 || acc.InstitutionName != "" {
			return false
		}
		for _, h := range acc.Profile.Holders {
			if h.Name != "" || h.PAN != "" {
				return false
			}
		}
	}
	return true
}

func recordName(upload string) string {
	base := upload
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "statement"
	}
	return base + ".json"
}
