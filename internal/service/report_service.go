package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/binapora/binapora-api/internal/models"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
	"github.com/binapora/binapora-api/pkg/export"
)

type rankingProvider interface {
	RankWithin(ctx context.Context, examinationID string) ([]models.RankingEntry, error)
	RankAcross(ctx context.Context, examinationIDs []string) ([]models.RankingEntry, error)
}

type sheetProvider interface {
	Sheet(ctx context.Context, examinationID, participantID string) (*models.ResultSheet, error)
}

// ReportFormat selects the export encoding.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// Report is a rendered export ready to stream to the client.
type Report struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportService renders rankings and result sheets as downloadable files.
type ReportService struct {
	rankings     rankingProvider
	results      sheetProvider
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	organization string
	logger       *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(rankings rankingProvider, results sheetProvider, organization string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		rankings:     rankings,
		results:      results,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		organization: organization,
		logger:       logger,
	}
}

// RankingReport exports a single examination's ranking.
func (s *ReportService) RankingReport(ctx context.Context, examinationID string, format ReportFormat) (*Report, error) {
	entries, err := s.rankings.RankWithin(ctx, examinationID)
	if err != nil {
		return nil, err
	}
	dataset := rankingDataset(entries)
	title := fmt.Sprintf("%s - Peringkat Pemeriksaan", s.organization)
	return s.render(dataset, title, "ranking-"+examinationID, format)
}

// SeriesRankingReport exports a ranking aggregated across several examinations.
func (s *ReportService) SeriesRankingReport(ctx context.Context, examinationIDs []string, format ReportFormat) (*Report, error) {
	entries, err := s.rankings.RankAcross(ctx, examinationIDs)
	if err != nil {
		return nil, err
	}
	dataset := rankingDataset(entries)
	title := fmt.Sprintf("%s - Peringkat Gabungan", s.organization)
	return s.render(dataset, title, "ranking-series", format)
}

// ResultSheetReport exports one participant's full result sheet for one
// examination.
func (s *ReportService) ResultSheetReport(ctx context.Context, examinationID, participantID string, format ReportFormat) (*Report, error) {
	sheet, err := s.results.Sheet(ctx, examinationID, participantID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Aspek", "Butir Tes", "Nilai Mentah", "Terukur", "Capaian (%)", "Kategori"},
	}
	aspectNames := make(map[string]string, len(sheet.Aspects))
	for _, aspect := range sheet.Aspects {
		aspectNames[aspect.AspectID] = aspect.AspectName
	}
	for _, item := range sheet.Items {
		dataset.Rows = append(dataset.Rows, []string{
			aspectNames[item.AspectID],
			item.ItemName,
			stringOrDash(item.RawValue),
			floatOrDash(item.Measurement),
			floatOrDash(item.Bounded),
			bandOrDash(item.Band),
		})
	}
	for _, aspect := range sheet.Aspects {
		dataset.Rows = append(dataset.Rows, []string{
			aspect.AspectName, "(rata-rata aspek)", "", "", floatOrDash(aspect.Bounded), bandOrDash(aspect.Band),
		})
	}
	dataset.Rows = append(dataset.Rows, []string{
		"KESELURUHAN", "", "", "", floatOrDash(sheet.Overall.Bounded), bandOrDash(sheet.Overall.Band),
	})

	title := fmt.Sprintf("%s - Hasil Pemeriksaan Khusus", s.organization)
	return s.render(dataset, title, fmt.Sprintf("hasil-%s-%s", examinationID, participantID), format)
}

func (s *ReportService) render(dataset export.Dataset, title, baseName string, format ReportFormat) (*Report, error) {
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &Report{FileName: baseName + ".csv", ContentType: "text/csv", Content: content}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &Report{FileName: baseName + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

func rankingDataset(entries []models.RankingEntry) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Peringkat", "Nama", "Skor", "Kategori"},
	}
	for _, entry := range entries {
		band := ""
		if entry.Band != nil {
			band = string(*entry.Band)
		}
		dataset.Rows = append(dataset.Rows, []string{
			strconv.Itoa(entry.Rank),
			entry.ParticipantName,
			strconv.FormatFloat(entry.Score, 'f', 2, 64),
			band,
		})
	}
	return dataset
}

func stringOrDash(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func bandOrDash(b *models.Band) string {
	if b == nil {
		return "-"
	}
	return string(*b)
}
