package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			description TEXT,
			significance TEXT,
			status TEXT NOT NULL,
			overall_risk TEXT NOT NULL,
			risk_updated DATETIME NOT NULL,
			active_threats TEXT NOT NULL,
			last_assessment DATETIME,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			threat_type TEXT NOT NULL,
			probability INTEGER NOT NULL,
			loss_of_value INTEGER NOT NULL,
			fraction_affected INTEGER NOT NULL,
			magnitude INTEGER NOT NULL,
			priority TEXT NOT NULL,
			uncertainty TEXT NOT NULL,
			assessment_date DATETIME NOT NULL,
			assessor TEXT NOT NULL,
			notes TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (site_id) REFERENCES sites(id)
		);

		CREATE INDEX IF NOT EXISTS idx_assessments_site_id ON assessments(site_id);
		CREATE INDEX IF NOT EXISTS idx_assessments_date ON assessments(assessment_date);
		CREATE INDEX IF NOT EXISTS idx_assessments_threat ON assessments(threat_type);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) PutSite(ctx context.Context, site *models.Site) error {
	threats, err := json.Marshal(site.RiskProfile.ActiveThreats)
	if err != nil {
		return fmt.Errorf("error encoding active threats: %w", err)
	}

	var lastAssessment any
	if !site.LastAssessment.IsZero() {
		lastAssessment = site.LastAssessment
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sites (id, name, location, description, significance, status,
			overall_risk, risk_updated, active_threats, last_assessment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			description = excluded.description,
			significance = excluded.significance,
			status = excluded.status,
			overall_risk = excluded.overall_risk,
			risk_updated = excluded.risk_updated,
			active_threats = excluded.active_threats,
			last_assessment = excluded.last_assessment`,
		site.ID, site.Name, site.Location, site.Description, site.Significance,
		site.Status, site.RiskProfile.OverallRisk, site.RiskProfile.LastUpdated,
		string(threats), lastAssessment, site.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting site %s: %w", site.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetSite(ctx context.Context, id string) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, location, description, significance, status,
			overall_risk, risk_updated, active_threats, last_assessment, created_at
		FROM sites WHERE id = ?`, id)

	site, err := scanSite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching site %s: %w", id, err)
	}
	return site, nil
}

func (s *SQLiteDB) ListSites(ctx context.Context) ([]models.Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, description, significance, status,
			overall_risk, risk_updated, active_threats, last_assessment, created_at
		FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning site: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(r rowScanner) (*models.Site, error) {
	var (
		site           models.Site
		threats        string
		lastAssessment sql.NullTime
	)
	err := r.Scan(&site.ID, &site.Name, &site.Location, &site.Description,
		&site.Significance, &site.Status, &site.RiskProfile.OverallRisk,
		&site.RiskProfile.LastUpdated, &threats, &lastAssessment, &site.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(threats), &site.RiskProfile.ActiveThreats); err != nil {
		return nil, fmt.Errorf("error decoding active threats: %w", err)
	}
	if lastAssessment.Valid {
		site.LastAssessment = lastAssessment.Time
	}
	return &site, nil
}

func (s *SQLiteDB) PutAssessment(ctx context.Context, a *models.Assessment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, site_id, threat_type, probability, loss_of_value,
			fraction_affected, magnitude, priority, uncertainty, assessment_date,
			assessor, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			site_id = excluded.site_id,
			threat_type = excluded.threat_type,
			probability = excluded.probability,
			loss_of_value = excluded.loss_of_value,
			fraction_affected = excluded.fraction_affected,
			magnitude = excluded.magnitude,
			priority = excluded.priority,
			uncertainty = excluded.uncertainty,
			assessment_date = excluded.assessment_date,
			assessor = excluded.assessor,
			notes = excluded.notes`,
		a.ID, a.SiteID, a.ThreatType, a.Probability, a.LossOfValue,
		a.FractionAffected, a.Magnitude, a.Priority, a.Uncertainty,
		a.AssessmentDate, a.Assessor, a.Notes, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting assessment %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, site_id, threat_type, probability, loss_of_value, fraction_affected,
			magnitude, priority, uncertainty, assessment_date, assessor, notes, created_at
		FROM assessments WHERE id = ?`, id)

	var a models.Assessment
	err := row.Scan(&a.ID, &a.SiteID, &a.ThreatType, &a.Probability, &a.LossOfValue,
		&a.FractionAffected, &a.Magnitude, &a.Priority, &a.Uncertainty,
		&a.AssessmentDate, &a.Assessor, &a.Notes, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching assessment %s: %w", id, err)
	}
	return &a, nil
}

func (s *SQLiteDB) DeleteAssessment(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting assessment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteDB) ListAssessments(ctx context.Context, opts Filter) ([]models.Assessment, error) {
	query := `
		SELECT id, site_id, threat_type, probability, loss_of_value, fraction_affected,
			magnitude, priority, uncertainty, assessment_date, assessor, notes, created_at
		FROM assessments WHERE 1=1`
	var args []any

	if opts.SiteID != "" {
		query += " AND site_id = ?"
		args = append(args, opts.SiteID)
	}
	if opts.ThreatType != nil {
		query += " AND threat_type = ?"
		args = append(args, *opts.ThreatType)
	}
	if opts.Since != nil {
		query += " AND assessment_date >= ?"
		args = append(args, *opts.Since)
	}
	if opts.MinMagnitude != nil {
		query += " AND magnitude >= ?"
		args = append(args, *opts.MinMagnitude)
	}

	query += " ORDER BY assessment_date ASC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing assessments: %w", err)
	}
	defer rows.Close()

	var assessments []models.Assessment
	for rows.Next() {
		var a models.Assessment
		err := rows.Scan(&a.ID, &a.SiteID, &a.ThreatType, &a.Probability, &a.LossOfValue,
			&a.FractionAffected, &a.Magnitude, &a.Priority, &a.Uncertainty,
			&a.AssessmentDate, &a.Assessor, &a.Notes, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning assessment: %w", err)
		}
		// Priority ordering lives in the models package, not in SQL.
		if opts.MinPriority != nil && a.Priority.Rank() < opts.MinPriority.Rank() {
			continue
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
