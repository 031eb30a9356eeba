package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehicle-service/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// ErrIssueNotFound is returned when no issue has the requested id.
var ErrIssueNotFound = errors.New("issue not found")

const issueColumns = `id, user_id, vehicle_model, description, formatted_issue, category, severity,
	suggested_actions, possible_causes, urgency_level, estimated_cost, source, status,
	created_at, resolved_at`

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateIssue stores a freshly analyzed issue. New issues always start open.
func (d *Database) CreateIssue(ctx context.Context, in models.NewIssue) (*models.Issue, error) {
	source := in.Source
	if source == "" {
		source = models.SourceText
	}
	issue := &models.Issue{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		VehicleModel:     in.VehicleModel,
		Description:      in.Analysis.Description,
		FormattedIssue:   in.Analysis.FormattedIssue,
		Category:         string(in.Analysis.Category),
		Severity:         string(in.Analysis.Severity),
		SuggestedActions: in.Analysis.SuggestedActions,
		PossibleCauses:   in.Analysis.PossibleCauses,
		UrgencyLevel:     in.Analysis.UrgencyLevel,
		EstimatedCost:    in.Analysis.EstimatedCost,
		Source:           source,
		Status:           models.StatusOpen,
		CreatedAt:        now(),
	}

	actions, err := json.Marshal(nonNil(issue.SuggestedActions))
	if err != nil {
		return nil, fmt.Errorf("failed to encode suggested actions: %w", err)
	}
	causes, err := json.Marshal(nonNil(issue.PossibleCauses))
	if err != nil {
		return nil, fmt.Errorf("failed to encode possible causes: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.UserID, issue.VehicleModel, issue.Description, issue.FormattedIssue,
		issue.Category, issue.Severity, string(actions), string(causes), issue.UrgencyLevel,
		issue.EstimatedCost, string(issue.Source), string(issue.Status), issue.CreatedAt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to insert issue: %w", err)
	}

	log.WithFields(log.Fields{"id": issue.ID, "user_id": issue.UserID}).Info("issue created")
	return issue, nil
}

// GetIssue returns the issue with the given id.
func (d *Database) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", id, err)
	}
	return issue, nil
}

// ListIssues returns all issues matching filter, newest first.
func (d *Database) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	var conds []string
	var args []any
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.VehicleModel != "" {
		conds = append(conds, "vehicle_model = ?")
		args = append(args, filter.VehicleModel)
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issues: %w", err)
	}
	return issues, nil
}

// ResolveIssue marks an open issue resolved. changed reports whether this
// call performed the transition; an issue that is already resolved, or that
// a concurrent call resolved first, is returned as stored with changed false.
func (d *Database) ResolveIssue(ctx context.Context, id string) (issue *models.Issue, changed bool, err error) {
	issue, err = d.GetIssue(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if issue.Status == models.StatusResolved {
		return issue, false, nil
	}

	resolvedAt := now()
	if resolvedAt.Before(issue.CreatedAt) {
		resolvedAt = issue.CreatedAt
	}

	result, err := d.db.ExecContext(ctx, `UPDATE issues
		SET status = ?, resolved_at = ?
		WHERE id = ? AND status = ?`,
		string(models.StatusResolved), resolvedAt, id, string(models.StatusOpen))
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve issue %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		log.Infof("issue %s was resolved concurrently, returning stored row", id)
		stored, err := d.GetIssue(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return stored, false, nil
	}

	issue.Status = models.StatusResolved
	issue.ResolvedAt = &resolvedAt
	return issue, true, nil
}

func scanIssue(s rowScanner) (*models.Issue, error) {
	var (
		issue      models.Issue
		actions    sql.NullString
		causes     sql.NullString
		urgency    sql.NullString
		cost       sql.NullString
		desc       sql.NullString
		formatted  sql.NullString
		source     string
		status     string
		resolvedAt sql.NullTime
	)
	err := s.Scan(
		&issue.ID,
		&issue.UserID,
		&issue.VehicleModel,
		&desc,
		&formatted,
		&issue.Category,
		&issue.Severity,
		&actions,
		&causes,
		&urgency,
		&cost,
		&source,
		&status,
		&issue.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	issue.Description = desc.String
	issue.FormattedIssue = formatted.String
	issue.UrgencyLevel = urgency.String
	issue.EstimatedCost = cost.String
	issue.Source = models.IssueSource(source)
	issue.Status = models.IssueStatus(status)
	issue.SuggestedActions = decodeList(issue.ID, actions)
	issue.PossibleCauses = decodeList(issue.ID, causes)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		issue.ResolvedAt = &t
	}
	return &issue, nil
}

// decodeList decodes a JSON array column. A malformed value is logged and
// read as empty so one bad row does not fail the whole listing.
func decodeList(id string, v sql.NullString) []string {
	out := []string{}
	if !v.Valid || v.String == "" {
		return out
	}
	if err := json.Unmarshal([]byte(v.String), &out); err != nil {
		log.WithError(err).Warnf("issue %s: malformed JSON list column", id)
		return []string{}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
