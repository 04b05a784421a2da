package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

type ExportKind string

const (
	ExportResponses ExportKind = "responses"
	ExportAnalytics ExportKind = "analytics"
	ExportSummary   ExportKind = "summary"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ExportParams struct {
	SurveyID int64
	Kind     ExportKind
	Format   ExportFormat
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	api ResultsAPI
	log *slog.Logger
	now func() time.Time
	loc *time.Location
}

func NewExportService(api ResultsAPI, log *slog.Logger) *ExportService {
	return &ExportService{api: api, log: orDiscard(log), now: time.Now, loc: time.Local}
}

// Export fetches what the requested table needs and encodes it.
func (s *ExportService) Export(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.SurveyID <= 0 {
		return nil, NewInvalidError("survey id required")
	}
	if params.Kind == "" {
		params.Kind = ExportResponses
	}
	if params.Format == "" {
		params.Format = FormatCSV
	}
	if params.Format != FormatCSV && params.Format != FormatXLSX {
		return nil, NewInvalidError("unsupported format")
	}

	sv, err := s.api.GetSurvey(ctx, params.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}

	var table *Table
	switch params.Kind {
	case ExportResponses:
		rs, err := s.api.GetSurveyResponses(ctx, params.SurveyID)
		if err != nil {
			return nil, err
		}
		table = ResponsesTable(sv, rs, s.loc)
	case ExportAnalytics:
		an, err := s.analytics(ctx, params.SurveyID)
		if err != nil {
			return nil, err
		}
		table = AnalyticsTable(sv, an)
	case ExportSummary:
		rs, err := s.api.GetSurveyResponses(ctx, params.SurveyID)
		if err != nil {
			return nil, err
		}
		an, err := s.analytics(ctx, params.SurveyID)
		if err != nil {
			return nil, err
		}
		table = SummaryTable(sv, rs, an, s.loc)
	default:
		return nil, NewInvalidError("unsupported export kind")
	}
	if len(table.Rows) == 0 {
		return nil, NewInvalidError("No data to export")
	}

	res := &ExportResult{Filename: ExportFilename(sv.Title, string(params.Kind), string(params.Format), s.now())}
	switch params.Format {
	case FormatXLSX:
		res.ContentType = contentTypeXLSX
		res.Data, err = EncodeXLSX(table, sheetName(params.Kind))
	default:
		res.ContentType = contentTypeCSV
		res.Data, err = EncodeCSV(table)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("survey exported", "survey_id", params.SurveyID, "kind", params.Kind, "format", params.Format, "rows", len(table.Rows))
	return res, nil
}

func (s *ExportService) analytics(ctx context.Context, id int64) (*SurveyAnalytics, error) {
	res, err := s.api.GetSurveyResults(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return AnalyzeResults(res), nil
}

func sheetName(k ExportKind) string {
	s := string(k)
	if s == "" {
		return "Sheet1"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
