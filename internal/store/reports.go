package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/quant"
)

// ErrReportNotFound is returned by GetReport for an unknown ID.
var ErrReportNotFound = errors.New("report not found")

// SavedReport is a stored quantified query report.
type SavedReport struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"created_at"`
	Report    *quant.Report `json:"report"`
}

// ReportSummary is one row of ListReports.
type ReportSummary struct {
	ID        string        `json:"id"`
	Formula   string        `json:"formula"`
	QX        ir.Quantifier `json:"qx"`
	QY        ir.Quantifier `json:"qy"`
	Outcome   quant.Outcome `json:"outcome"`
	Message   string        `json:"message"`
	Failures  int           `json:"failures"`
	CreatedAt string        `json:"created_at"`
}

// SaveReport stores rep and returns its new ID.
func (s *Store) SaveReport(ctx context.Context, rep *quant.Report) (string, error) {
	if rep == nil {
		return "", errors.New("save report: nil report")
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return "", errors.Wrap(err, "save report")
	}

	id := s.ids.Generate()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, formula, qx, qy, outcome, message, failures, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		rep.Formula,
		string(rep.QX),
		string(rep.QY),
		string(rep.Outcome),
		rep.Message,
		rep.Failures,
		string(payload),
	)
	if err != nil {
		return "", errors.Wrapf(err, "save report for %s", rep.Formula)
	}

	s.logger.Debug("report saved", zap.String("id", id), zap.String("formula", rep.Formula))
	return id, nil
}

// GetReport loads a saved report. Unknown IDs return ErrReportNotFound.
func (s *Store) GetReport(ctx context.Context, id string) (SavedReport, error) {
	var (
		saved   = SavedReport{ID: id}
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, created_at FROM reports WHERE id = ?
	`, id).Scan(&payload, &saved.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedReport{}, errors.Wrapf(ErrReportNotFound, "report %s", id)
	}
	if err != nil {
		return SavedReport{}, errors.Wrapf(err, "get report %s", id)
	}

	var rep quant.Report
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return SavedReport{}, errors.Wrapf(err, "decode report %s", id)
	}
	saved.Report = &rep
	return saved, nil
}

// ListReports returns saved reports in the order they were saved. An empty
// formula lists every report; otherwise only reports on that formula.
func (s *Store) ListReports(ctx context.Context, formula string) ([]ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, formula, qx, qy, outcome, message, failures, created_at
		FROM reports
		WHERE ? = '' OR formula = ?
		ORDER BY rowid ASC
	`, formula, formula)
	if err != nil {
		return nil, errors.Wrap(err, "query reports")
	}
	defer rows.Close()

	summaries := []ReportSummary{}
	for rows.Next() {
		var (
			r              ReportSummary
			qx, qy, result string
		)
		if err := rows.Scan(&r.ID, &r.Formula, &qx, &qy, &result, &r.Message, &r.Failures, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan report")
		}
		r.QX, r.QY, r.Outcome = ir.Quantifier(qx), ir.Quantifier(qy), quant.Outcome(result)
		summaries = append(summaries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate reports")
	}
	return summaries, nil
}
