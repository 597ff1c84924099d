package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/model"
)

// AnalysisInput is the body of POST /chart-analysis.
type AnalysisInput struct {
	UserEmail        string  `json:"userEmail"`
	UploadID         string  `json:"uploadId"`
	ChartType        string  `json:"chartType"`
	XAxis            string  `json:"xAxis"`
	YAxis            string  `json:"yAxis"`
	Summary          *string `json:"summary"`
	ChartImageBase64 string  `json:"chartImageBase64"`
}

// AnalysisService stores chart analyses saved by the client.
type AnalysisService struct {
	analyses AnalysisRepository
	logger   *zap.Logger
}

func NewAnalysisService(analyses AnalysisRepository, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{analyses: analyses, logger: logger}
}

// Save stores a new analysis.  Repeated saves of the same chart are
// kept as separate records.  userEmail defaults to the caller; only
// admins may save on behalf of someone else.
func (s *AnalysisService) Save(ctx context.Context, actor model.User, in AnalysisInput) (model.ChartAnalysis, error) {
	a := model.ChartAnalysis{
		UserEmail:        normalizeEmail(in.UserEmail),
		UploadID:         strings.TrimSpace(in.UploadID),
		ChartType:        strings.TrimSpace(in.ChartType),
		XAxis:            in.XAxis,
		YAxis:            in.YAxis,
		Summary:          in.Summary,
		ChartImageBase64: in.ChartImageBase64,
	}
	if a.UserEmail == "" {
		a.UserEmail = actor.Email
	}
	if a.UploadID == "" || a.ChartType == "" || a.XAxis == "" || a.YAxis == "" || a.ChartImageBase64 == "" {
		return model.ChartAnalysis{}, errFillAllFields
	}
	for _, f := range []struct {
		name, value string
		limit       int
	}{
		{"userEmail", a.UserEmail, maxEmailLen},
		{"uploadId", a.UploadID, maxUploadIDLen},
		{"chartType", a.ChartType, maxChartTypeLen},
		{"xAxis", a.XAxis, maxAxisLen},
		{"yAxis", a.YAxis, maxAxisLen},
	} {
		if err := checkLen(f.name, f.value, f.limit); err != nil {
			return model.ChartAnalysis{}, err
		}
	}
	if a.UserEmail != actor.Email && !actor.Role.AtLeast(model.RoleAdmin) {
		return model.ChartAnalysis{}, fail(ErrForbidden, "You can only save analyses for your own account")
	}
	if err := s.analyses.Create(ctx, &a); err != nil {
		return model.ChartAnalysis{}, err
	}
	s.logger.Debug("chart analysis saved", zap.Uint64("analysis_id", a.ID), zap.String("chart_type", a.ChartType))
	return a, nil
}

// ListByUser returns the analyses saved for email, newest first.
func (s *AnalysisService) ListByUser(ctx context.Context, actor model.User, email string) ([]model.ChartAnalysis, error) {
	email = normalizeEmail(email)
	if email != actor.Email && !actor.Role.AtLeast(model.RoleAdmin) {
		return nil, fail(ErrForbidden, "You can only view your own analyses")
	}
	return s.analyses.ListByEmail(ctx, email)
}

// ListAll returns every analysis, newest first.
func (s *AnalysisService) ListAll(ctx context.Context) ([]model.ChartAnalysis, error) {
	return s.analyses.ListAll(ctx)
}

// Delete removes an analysis.  Its owner and admins may delete it.
func (s *AnalysisService) Delete(ctx context.Context, actor model.User, id uint64) error {
	a, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err, "Analysis")
	}
	if a.UserEmail != actor.Email && !actor.Role.AtLeast(model.RoleAdmin) {
		return fail(ErrForbidden, "You are not authorized to delete this analysis")
	}
	if err := s.analyses.Delete(ctx, id); err != nil {
		return fromRepo(err, "Analysis")
	}
	s.logger.Info("chart analysis deleted", zap.Uint64("analysis_id", id), zap.Uint64("user_id", actor.ID))
	return nil
}

// Deduplicate keeps the first analysis for each chart type and axis
// pair, preserving order.  Applied to a newest-first list it keeps the
// latest save of every chart.
func Deduplicate(in []model.ChartAnalysis) []model.ChartAnalysis {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.ChartAnalysis, 0, len(in))
	for _, a := range in {
		k := a.DedupKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}
