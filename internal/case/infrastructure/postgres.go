package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// maxOBRetries bounds how many fresh OB numbers Save will try after a
// unique-index collision before giving up.
const maxOBRetries = 5

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const caseColumns = `id, ob_number, title, description, incident_type, incident_at,
		COALESCE(location_text, ''), COALESCE(location_lat, 0), COALESCE(location_lng, 0),
		station_id, status, priority, reporter_id, is_anonymous,
		assigned_officer_id, assigned_team_id,
		created_at, updated_at, closed_at`

// Save persists a new case and its initial audit entries. OB numbers are
// random, so a collision with the unique index is possible; Save regenerates
// and retries a bounded number of times before surfacing a conflict.
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Case) error {
	var lastErr error
	for attempt := 0; attempt <= maxOBRetries; attempt++ {
		if attempt > 0 {
			c.RegenerateOBNumber()
		}

		err := r.insertCase(ctx, c)
		if err == nil {
			return nil
		}
		if !isOBCollision(err) {
			return err
		}
		lastErr = err
	}

	return errors.Wrap(lastErr, "exhausted ob number retries")
}

func (r *PostgresRepository) insertCase(ctx context.Context, c *domain.Case) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cases.cases (
			id, ob_number, title, description, incident_type, incident_at,
			location_text, location_lat, location_lng,
			station_id, status, priority, reporter_id, is_anonymous,
			assigned_officer_id, assigned_team_id,
			created_at, updated_at, closed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)`

	_, err = tx.Exec(ctx, query,
		c.ID, c.OBNumber, c.Title, c.Description, c.IncidentType, c.IncidentAt,
		nullableText(c.Location.Text), nullableFloat(c.Location.Lat), nullableFloat(c.Location.Lng),
		c.StationID, c.Status, c.Priority, c.ReporterID, c.IsAnonymous,
		c.Assignment.OfficerID(), c.Assignment.TeamID(),
		c.CreatedAt, c.UpdatedAt, c.ClosedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return err
		}
		return errors.Wrap(err, "failed to save case")
	}

	for i := range c.Updates {
		if err := r.saveUpdate(ctx, tx, &c.Updates[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

func isOBCollision(err error) bool {
	return err != nil &&
		strings.Contains(err.Error(), "duplicate key") &&
		strings.Contains(err.Error(), "ob_number")
}

// FindByID finds a case by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases.cases WHERE id = $1`, caseColumns)

	c, err := scanCase(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find case")
	}

	return c, nil
}

// FindByOBNumber finds a case by its occurrence-book number
func (r *PostgresRepository) FindByOBNumber(ctx context.Context, obNumber string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases.cases WHERE ob_number = $1`, caseColumns)

	c, err := scanCase(r.pool.QueryRow(ctx, query, obNumber))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", obNumber)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find case by ob number")
	}

	return c, nil
}

// Update updates an existing case
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Case) error {
	query := `
		UPDATE cases.cases SET
			title = $2, description = $3, status = $4, priority = $5,
			assigned_officer_id = $6, assigned_team_id = $7,
			updated_at = $8, closed_at = $9
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		c.ID, c.Title, c.Description, c.Status, c.Priority,
		c.Assignment.OfficerID(), c.Assignment.TeamID(),
		c.UpdatedAt, c.ClosedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update case")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("case", c.ID.String())
	}

	return nil
}

// List lists cases with filters, newest first
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Case, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.StationID != nil {
		conditions = append(conditions, fmt.Sprintf("station_id = $%d", argNum))
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.ReporterID != nil {
		conditions = append(conditions, fmt.Sprintf("reporter_id = $%d", argNum))
		args = append(args, *filter.ReporterID)
		argNum++
	}

	if filter.AssignedOfficerID != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_officer_id = $%d", argNum))
		args = append(args, *filter.AssignedOfficerID)
		argNum++
	}

	if filter.AssignedTeamID != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_team_id = $%d", argNum))
		args = append(args, *filter.AssignedTeamID)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argNum))
		args = append(args, *filter.Priority)
		argNum++
	}

	if filter.IncidentType != nil {
		conditions = append(conditions, fmt.Sprintf("incident_type = $%d", argNum))
		args = append(args, *filter.IncidentType)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM cases.cases
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, caseColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	return collectCases(rows)
}

// collectCases drains a case result set. A mid-stream failure surfaces
// as an error rather than a silently truncated listing.
func collectCases(rows pgx.Rows) ([]*domain.Case, error) {
	var cases []*domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan case")
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}

	return cases, nil
}

// --- Audit trail operations ---

func (r *PostgresRepository) saveUpdate(ctx context.Context, tx pgx.Tx, u *domain.CaseUpdate) error {
	query := `
		INSERT INTO cases.case_updates (
			id, case_id, body, update_type, visibility, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		u.ID, u.CaseID, u.Body, u.Type, u.Visibility, nullableID(u.CreatedBy), u.CreatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to save case update")
	}

	return nil
}

// AddUpdate appends an entry to a case's audit trail
func (r *PostgresRepository) AddUpdate(ctx context.Context, u *domain.CaseUpdate) error {
	query := `
		INSERT INTO cases.case_updates (
			id, case_id, body, update_type, visibility, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.CaseID, u.Body, u.Type, u.Visibility, nullableID(u.CreatedBy), u.CreatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to add case update")
	}

	return nil
}

// GetUpdates returns a case's audit trail, oldest first. Internal entries
// are filtered out unless includeInternal is set.
func (r *PostgresRepository) GetUpdates(ctx context.Context, caseID types.ID, includeInternal bool) ([]domain.CaseUpdate, error) {
	query := `
		SELECT id, case_id, body, update_type, visibility, created_by, created_at
		FROM cases.case_updates
		WHERE case_id = $1`
	if !includeInternal {
		query += ` AND visibility = 'public'`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get case updates")
	}
	defer rows.Close()

	var updates []domain.CaseUpdate
	for rows.Next() {
		var u domain.CaseUpdate
		var createdBy *types.ID
		err := rows.Scan(&u.ID, &u.CaseID, &u.Body, &u.Type, &u.Visibility, &createdBy, &u.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan case update")
		}
		if createdBy != nil {
			u.CreatedBy = *createdBy
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to get case updates")
	}

	return updates, nil
}

// --- Dashboard aggregates ---

// CountByStatus counts cases per status, optionally scoped to a station
func (r *PostgresRepository) CountByStatus(ctx context.Context, stationID *types.ID) (*domain.StatusCounts, error) {
	query := `SELECT status, COUNT(*) FROM cases.cases`
	var args []interface{}
	if stationID != nil {
		query += ` WHERE station_id = $1`
		args = append(args, *stationID)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count cases by status")
	}
	defer rows.Close()

	counts := &domain.StatusCounts{}
	for rows.Next() {
		var status domain.CaseStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan status count")
		}

		counts.Total += n
		switch status {
		case domain.CaseStatusOpen:
			counts.Open = n
		case domain.CaseStatusInProgress:
			counts.InProgress = n
		case domain.CaseStatusClosed:
			counts.Closed = n
		case domain.CaseStatusArchived:
			counts.Archived = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to count cases by status")
	}

	return counts, nil
}

// CountByPriority counts cases per priority, optionally scoped to a station
func (r *PostgresRepository) CountByPriority(ctx context.Context, stationID *types.ID) (map[domain.Priority]int, error) {
	query := `SELECT priority, COUNT(*) FROM cases.cases`
	var args []interface{}
	if stationID != nil {
		query += ` WHERE station_id = $1`
		args = append(args, *stationID)
	}
	query += ` GROUP BY priority`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count cases by priority")
	}
	defer rows.Close()

	counts := make(map[domain.Priority]int)
	for rows.Next() {
		var priority domain.Priority
		var n int
		if err := rows.Scan(&priority, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan priority count")
		}
		counts[priority] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to count cases by priority")
	}

	return counts, nil
}

// CountByCounty aggregates national case totals per county in a single
// joined query instead of one query per station.
func (r *PostgresRepository) CountByCounty(ctx context.Context) ([]domain.CountyCount, error) {
	query := `
		SELECT s.county, COUNT(c.id)
		FROM cases.cases c
		JOIN identity.stations s ON s.id = c.station_id
		GROUP BY s.county
		ORDER BY COUNT(c.id) DESC, s.county`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count cases by county")
	}
	defer rows.Close()

	var counts []domain.CountyCount
	for rows.Next() {
		var cc domain.CountyCount
		if err := rows.Scan(&cc.County, &cc.Total); err != nil {
			return nil, errors.Wrap(err, "failed to scan county count")
		}
		counts = append(counts, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to count cases by county")
	}

	return counts, nil
}

// Recent returns the newest cases, optionally scoped to a station
func (r *PostgresRepository) Recent(ctx context.Context, stationID *types.ID, limit int) ([]*domain.Case, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	filter := domain.ListFilter{StationID: stationID, Limit: limit}
	return r.List(ctx, filter)
}

// --- Scan helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	c := &domain.Case{}
	var officerID, teamID *types.ID

	err := row.Scan(
		&c.ID, &c.OBNumber, &c.Title, &c.Description, &c.IncidentType, &c.IncidentAt,
		&c.Location.Text, &c.Location.Lat, &c.Location.Lng,
		&c.StationID, &c.Status, &c.Priority, &c.ReporterID, &c.IsAnonymous,
		&officerID, &teamID,
		&c.CreatedAt, &c.UpdatedAt, &c.ClosedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case officerID != nil:
		c.Assignment = domain.OfficerAssignment(*officerID)
	case teamID != nil:
		c.Assignment = domain.TeamAssignment(*teamID)
	}

	return c, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

func nullableID(id types.ID) *types.ID {
	if id.IsZero() {
		return nil
	}
	return &id
}
