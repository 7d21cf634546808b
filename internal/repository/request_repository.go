package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// ErrVersionConflict is returned by Update when the stored record changed
// since it was read.
var ErrVersionConflict = errors.New("request modified concurrently")

// RequestFilter captures admin search parameters.
type RequestFilter struct {
	Process    *string
	States     []domain.RequestState
	Priorities []domain.RequestPriority
	SearchTerm *string
	Limit      int
	Offset     int
}

// RequestRepository persists requests.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	// Update writes req if its Version still matches the stored one and
	// increments Version on success.
	Update(ctx context.Context, req *domain.Request) error
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	Count(ctx context.Context, filter RequestFilter) (int, error)
	// All ignores pagination; used for aggregate metrics and scans.
	All(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	// MarkPauseReminded records a long-pause reminder. It leaves Version alone.
	MarkPauseReminded(ctx context.Context, id string, at time.Time) error
}

const requestColumns = `id, territorial, requester_name, requester_email, request_type, area, process,
       priority, description, due_date, state, assignee_name, assignee_email, admin_comments,
       state_history, paused_accumulated_days, pause_started_at, created_at, updated_at,
       responded_at, completed_at, response_days, resolution_days, version, pause_reminded_at`

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	const query = `
        INSERT INTO requests (id, territorial, requester_name, requester_email, request_type, area, process,
            priority, description, due_date, state, state_history, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
        RETURNING version`
	return r.pool.QueryRow(ctx, query,
		req.ID,
		req.Territorial,
		req.RequesterName,
		req.RequesterEmail,
		req.RequestType,
		req.Area,
		req.Process,
		req.Priority,
		req.Description,
		req.DueDate,
		req.State,
		req.History,
		req.CreatedAt,
	).Scan(&req.Version)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id=$1`
	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *domain.Request) error {
	const query = `
        UPDATE requests SET priority=$1, state=$2, assignee_name=$3, assignee_email=$4,
            admin_comments=$5, state_history=$6, paused_accumulated_days=$7, pause_started_at=$8,
            updated_at=$9, responded_at=$10, completed_at=$11, response_days=$12, resolution_days=$13,
            version=version+1
        WHERE id=$14 AND version=$15
        RETURNING version`
	err := r.pool.QueryRow(ctx, query,
		req.Priority,
		req.State,
		req.AssigneeName,
		req.AssigneeEmail,
		req.AdminComments,
		req.History,
		req.PausedAccumulatedDays,
		req.PauseStartedAt,
		req.UpdatedAt,
		req.RespondedAt,
		req.CompletedAt,
		req.ResponseDays,
		req.ResolutionDays,
		req.ID,
		req.Version,
	).Scan(&req.Version)
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id=$1)`, req.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return pgx.ErrNoRows
}

func (r *requestRepository) MarkPauseReminded(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE requests SET pause_reminded_at=$2 WHERE id=$1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	where, args := buildRequestWhere(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		requestColumns, where, limit, offset)
	return r.query(ctx, query, args)
}

func (r *requestRepository) All(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	where, args := buildRequestWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY created_at`, requestColumns, where)
	return r.query(ctx, query, args)
}

func (r *requestRepository) Count(ctx context.Context, filter RequestFilter) (int, error) {
	where, args := buildRequestWhere(filter)
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests WHERE `+where, args...).Scan(&total)
	return total, err
}

func (r *requestRepository) query(ctx context.Context, query string, args []any) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func buildRequestWhere(filter RequestFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Process != nil {
		args = append(args, *filter.Process)
		clauses = append(clauses, fmt.Sprintf("process=$%d", len(args)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(id) LIKE %[1]s OR LOWER(requester_name) LIKE %[1]s OR LOWER(description) LIKE %[1]s)", p))
	}
	return strings.Join(clauses, " AND "), args
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var req domain.Request
	if err := row.Scan(
		&req.ID,
		&req.Territorial,
		&req.RequesterName,
		&req.RequesterEmail,
		&req.RequestType,
		&req.Area,
		&req.Process,
		&req.Priority,
		&req.Description,
		&req.DueDate,
		&req.State,
		&req.AssigneeName,
		&req.AssigneeEmail,
		&req.AdminComments,
		&req.History,
		&req.PausedAccumulatedDays,
		&req.PauseStartedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.RespondedAt,
		&req.CompletedAt,
		&req.ResponseDays,
		&req.ResolutionDays,
		&req.Version,
		&req.PauseRemindedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
