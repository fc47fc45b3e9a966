package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
	"github.com/noah-isme/planucab-api/pkg/export"
)

// Agenda export formats.
const (
	AgendaFormatCSV = "csv"
	AgendaFormatPDF = "pdf"
	AgendaFormatICS = "ics"
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

var agendaHeaders = []string{"Fecha", "Día", "Inicio", "Fin", "Tipo", "Título", "Materia", "Ubicación"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, entries []export.CalendarEntry) ([]byte, error)
}

// AgendaConfig tunes agenda expansion and caching.
type AgendaConfig struct {
	MaxDays  int
	CacheTTL time.Duration
}

// AgendaExport is a rendered agenda ready to be streamed.
type AgendaExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AgendaService expands an owner's blocks into dated occurrences over a window.
type AgendaService struct {
	events       eventLister
	horarios     horarioLister
	evaluaciones evaluacionLister
	cache        *CacheService
	cfg          AgendaConfig
	csv          csvRenderer
	pdf          pdfRenderer
	ics          icsRenderer
	logger       *zap.Logger

	// Cache keys carry the owner's write generation, so an agenda expanded before a commit
	// can only be stored under a key no later lookup uses. epoch separates process lifetimes.
	epoch       string
	genMu       sync.Mutex
	generations map[int64]uint64
}

// NewAgendaService constructs an AgendaService. cache may be nil.
func NewAgendaService(events eventLister, horarios horarioLister, evaluaciones evaluacionLister, cache *CacheService, cfg AgendaConfig, logger *zap.Logger) *AgendaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 120
	}
	return &AgendaService{
		events:       events,
		horarios:     horarios,
		evaluaciones: evaluaciones,
		cache:        cache,
		cfg:          cfg,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		ics:          export.NewICSExporter(""),
		logger:       logger,
		epoch:        uuid.NewString()[:8],
		generations:  make(map[int64]uint64),
	}
}

// Agenda lists every occurrence between from and to, both inclusive, ordered by date and start time.
func (s *AgendaService) Agenda(ctx context.Context, ownerID int64, from, to models.LocalDate) ([]models.Occurrence, error) {
	if err := s.checkWindow(from, to); err != nil {
		return nil, err
	}

	key := s.cacheKey(ownerID, from, to)
	var cached []models.Occurrence
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	occurrences, err := s.expand(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, occurrences, s.cfg.CacheTTL)
	return occurrences, nil
}

// InvalidateOwner moves the owner to a new cache generation and drops every cached window.
func (s *AgendaService) InvalidateOwner(ctx context.Context, ownerID int64) error {
	s.genMu.Lock()
	s.generations[ownerID]++
	s.genMu.Unlock()
	return s.cache.Invalidate(ctx, fmt.Sprintf("agenda:%d:*", ownerID))
}

func (s *AgendaService) cacheKey(ownerID int64, from, to models.LocalDate) string {
	s.genMu.Lock()
	gen := s.generations[ownerID]
	s.genMu.Unlock()
	return fmt.Sprintf("agenda:%d:%s.%d:%s:%s", ownerID, s.epoch, gen, from, to)
}

// Export renders the agenda window as csv, pdf or ics.
func (s *AgendaService) Export(ctx context.Context, ownerID int64, from, to models.LocalDate, format string) (*AgendaExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = AgendaFormatCSV
	}
	if format != AgendaFormatCSV && format != AgendaFormatPDF && format != AgendaFormatICS {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	occurrences, err := s.Agenda(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("agenda-%d-%s-%s.%s", ownerID, from, to, format)
	title := fmt.Sprintf("Agenda %s - %s", from, to)
	var (
		body        []byte
		contentType string
	)
	switch format {
	case AgendaFormatCSV:
		body, err = s.csv.Render(agendaDataset(occurrences))
		contentType = "text/csv; charset=utf-8"
	case AgendaFormatPDF:
		body, err = s.pdf.Render(agendaDataset(occurrences), title)
		contentType = "application/pdf"
	case AgendaFormatICS:
		body, err = s.ics.Render(title, calendarEntries(occurrences))
		contentType = "text/calendar; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render agenda")
	}
	s.logger.Info("agenda exported",
		zap.Int64("owner_id", ownerID),
		zap.String("format", format),
		zap.Int("occurrences", len(occurrences)),
	)
	return &AgendaExport{Filename: filename, ContentType: contentType, Body: body}, nil
}

func (s *AgendaService) checkWindow(from, to models.LocalDate) error {
	if from.IsZero() || to.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	if to.Before(from) {
		return appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if days := from.DaysUntil(to) + 1; days > s.cfg.MaxDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("agenda window of %d days exceeds the limit of %d", days, s.cfg.MaxDays))
	}
	return nil
}

func (s *AgendaService) expand(ctx context.Context, ownerID int64, from, to models.LocalDate) ([]models.Occurrence, error) {
	events, err := s.events.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindEvent, "list")
	}
	horarios, err := s.horarios.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "list")
	}
	evaluaciones, err := s.evaluaciones.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindEvaluacion, "list")
	}

	inWindow := func(d models.LocalDate) bool { return !d.Before(from) && !d.After(to) }
	out := make([]models.Occurrence, 0)

	for _, e := range events {
		if date := e.Start.Date(); inWindow(date) {
			out = append(out, models.Occurrence{
				Kind: models.KindEvent, BlockID: e.ID, Title: e.Name, Location: e.Location, ColorHex: e.ColorHex,
				Date: date, Start: e.Start.Clock(), End: e.End.Clock(),
			})
		}
	}
	for _, ev := range evaluaciones {
		if date := ev.Start.Date(); inWindow(date) {
			out = append(out, models.Occurrence{
				Kind: models.KindEvaluacion, BlockID: ev.ID, Title: ev.Title, Subject: subjectNames(ev.Subjects),
				Location: firstNonEmpty(ev.Room, ev.Location), ColorHex: ev.ColorHex,
				Date: date, Start: ev.Start.Clock(), End: ev.End.Clock(),
			})
		}
	}
	for _, h := range horarios {
		if !h.Weekday.Valid() {
			s.logger.Warn("skipping horario with unknown weekday", zap.Int64("owner_id", ownerID), zap.Int64("id", h.ID))
			continue
		}
		dates, err := weeklyDates(h.Weekday.Time(), from, to)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand horario")
		}
		for _, date := range dates {
			out = append(out, models.Occurrence{
				Kind: models.KindHorario, BlockID: h.ID, Title: h.Subject, Subject: h.Subject,
				Location: h.Location, ColorHex: h.ColorHex, Date: date, Start: h.StartTime, End: h.EndTime,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.BlockID < b.BlockID
	})
	return out, nil
}

// weeklyDates lists every date on day between from and to, inclusive.
func weeklyDates(day time.Weekday, from, to models.LocalDate) ([]models.LocalDate, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
		Dtstart:   from.Time(),
		Until:     to.Time(),
	})
	if err != nil {
		return nil, fmt.Errorf("build weekly rule: %w", err)
	}
	var set rrule.Set
	set.RRule(rule)

	times := set.Between(from.Time(), to.Time(), true)
	dates := make([]models.LocalDate, 0, len(times))
	for _, t := range times {
		dates = append(dates, models.NewLocalDate(t.Year(), t.Month(), t.Day()))
	}
	return dates, nil
}

func agendaDataset(occurrences []models.Occurrence) export.Dataset {
	data := export.Dataset{Headers: agendaHeaders}
	for _, o := range occurrences {
		data.AddRow(o.Date.String(), string(models.WeekdayOf(o.Date.Weekday())), o.Start.String(), o.End.String(),
			string(o.Kind), o.Title, o.Subject, o.Location)
	}
	return data
}

func calendarEntries(occurrences []models.Occurrence) []export.CalendarEntry {
	entries := make([]export.CalendarEntry, 0, len(occurrences))
	for _, o := range occurrences {
		entries = append(entries, export.CalendarEntry{
			UID:         fmt.Sprintf("%s-%d-%s@planucab", o.Kind, o.BlockID, strings.ReplaceAll(o.Date.String(), "-", "")),
			Summary:     o.Title,
			Description: o.Subject,
			Location:    o.Location,
			Start:       o.Date.At(o.Start).Time(),
			End:         o.Date.At(o.End).Time(),
		})
	}
	return entries
}

func subjectNames(allocations []models.SubjectAllocation) string {
	names := make([]string, 0, len(allocations))
	for _, alloc := range allocations {
		names = append(names, alloc.Name)
	}
	return strings.Join(names, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
