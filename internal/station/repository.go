package station

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Repository provides database operations for stations, officers and teams
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new station repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Station operations ---

// CreateStation registers a new station
func (r *Repository) CreateStation(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO identity.stations (
			id, name, county, code,
			location_text, location_lat, location_lng,
			contact_email, contact_phone,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Name, s.County, s.Code,
		s.Location.Text, s.Location.Lat, s.Location.Lng,
		s.Contact.Email, s.Contact.Phone,
		s.CreatedAt, s.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("station with this code already exists")
		}
		return errors.Wrap(err, "failed to create station")
	}

	return nil
}

// GetStation retrieves a station by ID
func (r *Repository) GetStation(ctx context.Context, id types.ID) (*Station, error) {
	query := `
		SELECT id, name, county, code,
			COALESCE(location_text, ''), COALESCE(location_lat, 0), COALESCE(location_lng, 0),
			COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
			created_at, updated_at
		FROM identity.stations
		WHERE id = $1`

	s := &Station{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.County, &s.Code,
		&s.Location.Text, &s.Location.Lat, &s.Location.Lng,
		&s.Contact.Email, &s.Contact.Phone,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("station", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get station")
	}

	return s, nil
}

// GetStationByCode retrieves a station by its code
func (r *Repository) GetStationByCode(ctx context.Context, code string) (*Station, error) {
	query := `
		SELECT id, name, county, code,
			COALESCE(location_text, ''), COALESCE(location_lat, 0), COALESCE(location_lng, 0),
			COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
			created_at, updated_at
		FROM identity.stations
		WHERE code = $1`

	s := &Station{}
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&s.ID, &s.Name, &s.County, &s.Code,
		&s.Location.Text, &s.Location.Lat, &s.Location.Lng,
		&s.Contact.Email, &s.Contact.Phone,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("station", code)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get station by code")
	}

	return s, nil
}

// UpdateStation updates a station
func (r *Repository) UpdateStation(ctx context.Context, s *Station) error {
	query := `
		UPDATE identity.stations SET
			name = $2, county = $3,
			location_text = $4, location_lat = $5, location_lng = $6,
			contact_email = $7, contact_phone = $8,
			updated_at = $9
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		s.ID, s.Name, s.County,
		s.Location.Text, s.Location.Lat, s.Location.Lng,
		s.Contact.Email, s.Contact.Phone,
		s.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update station")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("station", s.ID.String())
	}

	return nil
}

// ListStations lists stations with optional filters
func (r *Repository) ListStations(ctx context.Context, filter ListStationsFilter) ([]Station, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.County != "" {
		conditions = append(conditions, fmt.Sprintf("county = $%d", argNum))
		args = append(args, filter.County)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM identity.stations %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count stations")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, name, county, code,
			COALESCE(location_text, ''), COALESCE(location_lat, 0), COALESCE(location_lng, 0),
			COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
			created_at, updated_at
		FROM identity.stations
		%s
		ORDER BY county, name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list stations")
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var s Station
		err := rows.Scan(
			&s.ID, &s.Name, &s.County, &s.Code,
			&s.Location.Text, &s.Location.Lat, &s.Location.Lng,
			&s.Contact.Email, &s.Contact.Phone,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan station")
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to list stations")
	}

	return stations, total, nil
}

// --- Officer operations ---

// CreateOfficer enrolls a new officer
func (r *Repository) CreateOfficer(ctx context.Context, o *Officer) error {
	query := `
		INSERT INTO identity.officers (
			id, user_id, badge_number, rank, station_id, department,
			status, joined_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.UserID, o.BadgeNumber, o.Rank, o.StationID, o.Department,
		o.Status, o.JoinedAt, o.CreatedAt, o.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("officer with this badge number already exists")
		}
		return errors.Wrap(err, "failed to create officer")
	}

	return nil
}

// GetOfficer retrieves an officer by ID, joined with the user record for
// the display name.
func (r *Repository) GetOfficer(ctx context.Context, id types.ID) (*Officer, error) {
	query := `
		SELECT o.id, o.user_id, o.badge_number, o.rank, o.station_id, COALESCE(o.department, ''),
			o.status, o.joined_at, u.name, u.email,
			o.created_at, o.updated_at
		FROM identity.officers o
		JOIN identity.users u ON u.id = o.user_id
		WHERE o.id = $1`

	o := &Officer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.BadgeNumber, &o.Rank, &o.StationID, &o.Department,
		&o.Status, &o.JoinedAt, &o.Name, &o.Email,
		&o.CreatedAt, &o.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("officer", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get officer")
	}

	return o, nil
}

// GetOfficerByBadge retrieves an officer by badge number
func (r *Repository) GetOfficerByBadge(ctx context.Context, badgeNumber string) (*Officer, error) {
	var id types.ID
	err := r.pool.QueryRow(ctx, `SELECT id FROM identity.officers WHERE badge_number = $1`, badgeNumber).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("officer", badgeNumber)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get officer by badge")
	}

	return r.GetOfficer(ctx, id)
}

// GetOfficerByUser retrieves the officer record linked to a user
func (r *Repository) GetOfficerByUser(ctx context.Context, userID types.ID) (*Officer, error) {
	var id types.ID
	err := r.pool.QueryRow(ctx, `SELECT id FROM identity.officers WHERE user_id = $1`, userID).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("officer", userID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get officer by user")
	}

	return r.GetOfficer(ctx, id)
}

// UpdateOfficer updates an officer
func (r *Repository) UpdateOfficer(ctx context.Context, o *Officer) error {
	query := `
		UPDATE identity.officers SET
			rank = $2, station_id = $3, department = $4, status = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		o.ID, o.Rank, o.StationID, o.Department, o.Status, o.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update officer")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("officer", o.ID.String())
	}

	return nil
}

// ListOfficers lists officers with optional filters
func (r *Repository) ListOfficers(ctx context.Context, filter ListOfficersFilter) ([]Officer, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.StationID != nil {
		conditions = append(conditions, fmt.Sprintf("o.station_id = $%d", argNum))
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(u.name ILIKE $%d OR o.badge_number ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM identity.officers o
		JOIN identity.users u ON u.id = o.user_id
		%s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count officers")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.user_id, o.badge_number, o.rank, o.station_id, COALESCE(o.department, ''),
			o.status, o.joined_at, u.name, u.email,
			o.created_at, o.updated_at
		FROM identity.officers o
		JOIN identity.users u ON u.id = o.user_id
		%s
		ORDER BY o.badge_number
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list officers")
	}
	defer rows.Close()

	var officers []Officer
	for rows.Next() {
		var o Officer
		err := rows.Scan(
			&o.ID, &o.UserID, &o.BadgeNumber, &o.Rank, &o.StationID, &o.Department,
			&o.Status, &o.JoinedAt, &o.Name, &o.Email,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan officer")
		}
		officers = append(officers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to list officers")
	}

	return officers, total, nil
}

// CountOfficersByStatus aggregates officer headcount per status. A nil
// stationID counts nationally.
func (r *Repository) CountOfficersByStatus(ctx context.Context, stationID *types.ID) (map[OfficerStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM identity.officers GROUP BY status`
	var args []interface{}
	if stationID != nil {
		query = `SELECT status, COUNT(*) FROM identity.officers WHERE station_id = $1 GROUP BY status`
		args = append(args, *stationID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count officers by status")
	}
	defer rows.Close()

	counts := make(map[OfficerStatus]int)
	for rows.Next() {
		var status OfficerStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan officer count")
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

// --- Team operations ---

// CreateTeam forms a new team
func (r *Repository) CreateTeam(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO identity.teams (
			id, name, station_id, lead_officer_id, specialty, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, t.StationID, t.LeadOfficerID, t.Specialty, t.Status,
		t.CreatedAt, t.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to create team")
	}

	return nil
}

// GetTeam retrieves a team by ID
func (r *Repository) GetTeam(ctx context.Context, id types.ID) (*Team, error) {
	query := `
		SELECT id, name, station_id, lead_officer_id, COALESCE(specialty, ''), status,
			created_at, updated_at
		FROM identity.teams
		WHERE id = $1`

	t := &Team{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.StationID, &t.LeadOfficerID, &t.Specialty, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("team", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get team")
	}

	return t, nil
}

// UpdateTeam updates a team
func (r *Repository) UpdateTeam(ctx context.Context, t *Team) error {
	query := `
		UPDATE identity.teams SET
			name = $2, lead_officer_id = $3, specialty = $4, status = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, t.LeadOfficerID, t.Specialty, t.Status, t.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update team")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("team", t.ID.String())
	}

	return nil
}

// ListTeams lists teams with optional filters
func (r *Repository) ListTeams(ctx context.Context, filter ListTeamsFilter) ([]Team, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.StationID != nil {
		conditions = append(conditions, fmt.Sprintf("station_id = $%d", argNum))
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM identity.teams %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count teams")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, name, station_id, lead_officer_id, COALESCE(specialty, ''), status,
			created_at, updated_at
		FROM identity.teams
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list teams")
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		err := rows.Scan(
			&t.ID, &t.Name, &t.StationID, &t.LeadOfficerID, &t.Specialty, &t.Status,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan team")
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to list teams")
	}

	return teams, total, nil
}
