package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// tables runs every query against one querier: the pool, or a *sql.Tx
// inside WithTx.
type tables struct {
	q querier
}

var _ timeoff.Store = (*tables)(nil)

// =============================================================================
// BUCKET STORE (generic.BucketStore interface)
// =============================================================================

const bucketColumns = `employee_id, leave_type_id, year, accrued, taken, comment, updated_at`

func (t *tables) Buckets(ctx context.Context, entityID generic.EntityID, resourceID generic.ResourceID) ([]generic.Bucket, error) {
	return t.queryBuckets(ctx, `
		SELECT `+bucketColumns+` FROM buckets
		WHERE employee_id = ? AND leave_type_id = ?
		ORDER BY year ASC`, entityID, resourceID)
}

func (t *tables) EntityBuckets(ctx context.Context, entityID generic.EntityID) ([]generic.Bucket, error) {
	return t.queryBuckets(ctx, `
		SELECT `+bucketColumns+` FROM buckets
		WHERE employee_id = ?
		ORDER BY leave_type_id ASC, year ASC`, entityID)
}

func (t *tables) Bucket(ctx context.Context, k generic.BucketKey) (*generic.Bucket, error) {
	buckets, err := t.queryBuckets(ctx, `
		SELECT `+bucketColumns+` FROM buckets
		WHERE employee_id = ? AND leave_type_id = ? AND year = ?`, k.EntityID, k.ResourceID, k.Year)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, &generic.NotFoundError{Kind: "bucket", ID: fmt.Sprintf("%s/%s/%d", k.EntityID, k.ResourceID, k.Year)}
	}
	return &buckets[0], nil
}

// SaveBucket inserts or replaces the bucket row.
func (t *tables) SaveBucket(ctx context.Context, b generic.Bucket) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO buckets (`+bucketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, leave_type_id, year) DO UPDATE SET
			accrued = excluded.accrued,
			taken = excluded.taken,
			comment = excluded.comment,
			updated_at = excluded.updated_at`,
		b.EntityID, b.ResourceID, b.Year,
		b.Accrued.Value.String(), b.Taken.Value.String(),
		nullString(b.Comment), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save bucket: %w", err)
	}
	return nil
}

func (t *tables) queryBuckets(ctx context.Context, query string, args ...any) ([]generic.Bucket, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []generic.Bucket
	for rows.Next() {
		var b generic.Bucket
		var accrued, taken, updatedAt string
		var comment sql.NullString
		if err := rows.Scan(&b.EntityID, &b.ResourceID, &b.Year, &accrued, &taken, &comment, &updatedAt); err != nil {
			return nil, err
		}
		if b.Accrued, err = parseDays(accrued); err != nil {
			return nil, err
		}
		if b.Taken, err = parseDays(taken); err != nil {
			return nil, err
		}
		if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		b.Comment = comment.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (t *tables) AppendAudit(ctx context.Context, e generic.AuditEntry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}
	_, err = t.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, employee_id, reference_id, from_status, to_status, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.Timestamp), e.ActorID, e.Action,
		nullString(string(e.EntityID)), nullString(e.ReferenceID),
		nullString(e.FromStatus), nullString(e.ToStatus), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (t *tables) QueryAudit(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	var where []string
	var args []any
	if f.EntityID != nil {
		where = append(where, "employee_id = ?")
		args = append(args, *f.EntityID)
	}
	if f.ReferenceID != nil {
		where = append(where, "reference_id = ?")
		args = append(args, *f.ReferenceID)
	}
	if len(f.Actions) > 0 {
		where = append(where, "action IN ("+placeholders(len(f.Actions))+")")
		for _, a := range f.Actions {
			args = append(args, a)
		}
	}
	query := `SELECT id, timestamp, actor_id, action, employee_id, reference_id, from_status, to_status, payload_json FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid ASC"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []generic.AuditEntry
	for rows.Next() {
		var e generic.AuditEntry
		var ts string
		var entity, ref, from, to, payload sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &e.Action, &entity, &ref, &from, &to, &payload); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		e.EntityID = generic.EntityID(entity.String)
		e.ReferenceID = ref.String
		e.FromStatus = from.String
		e.ToStatus = to.String
		if payload.Valid && payload.String != "" && payload.String != "null" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode audit payload: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

const employeeColumns = `id, full_name, email, hire_date, active, manager_id, role, ad_managed`

func (t *tables) SaveEmployee(ctx context.Context, e timeoff.Employee) error {
	var manager sql.NullString
	if e.ManagerID != nil {
		manager = nullString(string(*e.ManagerID))
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			hire_date = excluded.hire_date,
			active = excluded.active,
			manager_id = excluded.manager_id,
			role = excluded.role,
			ad_managed = excluded.ad_managed`,
		e.ID, e.FullName, nullString(e.Email), e.HireDate.String(),
		e.Active, manager, e.Role, e.ADManaged,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (t *tables) GetEmployee(ctx context.Context, id generic.EntityID) (*timeoff.Employee, error) {
	emps, err := t.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(emps) == 0 {
		return nil, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return &emps[0], nil
}

func (t *tables) ListEmployees(ctx context.Context) ([]timeoff.Employee, error) {
	return t.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY full_name ASC`)
}

func (t *tables) queryEmployees(ctx context.Context, query string, args ...any) ([]timeoff.Employee, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeoff.Employee
	for rows.Next() {
		var e timeoff.Employee
		var email, manager sql.NullString
		var hire string
		if err := rows.Scan(&e.ID, &e.FullName, &email, &hire, &e.Active, &manager, &e.Role, &e.ADManaged); err != nil {
			return nil, err
		}
		if e.HireDate, err = generic.ParseDate(hire); err != nil {
			return nil, err
		}
		e.Email = email.String
		if manager.Valid {
			id := generic.EntityID(manager.String)
			e.ManagerID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE TYPE STORE
// =============================================================================

const leaveTypeColumns = `id, name, requires_balance, default_days, consumption_type, requires_attachment`

func (t *tables) SaveLeaveType(ctx context.Context, lt timeoff.LeaveType) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO leave_types (`+leaveTypeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			requires_balance = excluded.requires_balance,
			default_days = excluded.default_days,
			consumption_type = excluded.consumption_type,
			requires_attachment = excluded.requires_attachment`,
		lt.ID, lt.Name, lt.RequiresBalance, lt.DefaultDays, lt.ConsumptionType, lt.RequiresAttachment,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.ConflictError{Reason: fmt.Sprintf("leave type %q already exists", lt.Name)}
		}
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

func (t *tables) GetLeaveType(ctx context.Context, id generic.ResourceID) (*timeoff.LeaveType, error) {
	types, err := t.queryLeaveTypes(ctx, `SELECT `+leaveTypeColumns+` FROM leave_types WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, &generic.NotFoundError{Kind: "leave type", ID: string(id)}
	}
	return &types[0], nil
}

func (t *tables) ListLeaveTypes(ctx context.Context) ([]timeoff.LeaveType, error) {
	return t.queryLeaveTypes(ctx, `SELECT `+leaveTypeColumns+` FROM leave_types ORDER BY name ASC`)
}

func (t *tables) DeleteLeaveType(ctx context.Context, id generic.ResourceID) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM leave_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "leave type", ID: string(id)}
	}
	return nil
}

func (t *tables) queryLeaveTypes(ctx context.Context, query string, args ...any) ([]timeoff.LeaveType, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeoff.LeaveType
	for rows.Next() {
		var lt timeoff.LeaveType
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.RequiresBalance, &lt.DefaultDays, &lt.ConsumptionType, &lt.RequiresAttachment); err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, employee_id, leave_type_id, request_type, start_date, end_date,
	start_time, end_time, days, replacement_id, replacement_name, status,
	cancellation_reason, interruption_reason, modification_reason, attachment_path,
	request_date, manager_approval_date, hr_approval_date, created_by, updated_at`

func requestArgs(r timeoff.Request) []any {
	return []any{
		r.ID, r.EmployeeID, r.LeaveTypeID, r.Type, r.StartDate.String(), r.EndDate.String(),
		nullString(r.StartTime), nullString(r.EndTime), r.Days.Value.String(),
		nullString(string(r.ReplacementID)), nullString(r.ReplacementName), r.Status,
		nullString(r.CancellationReason), nullString(r.InterruptionReason),
		nullString(r.ModificationReason), nullString(r.AttachmentPath),
		formatTime(r.RequestDate), nullTime(r.ManagerApprovalDate), nullTime(r.HRApprovalDate),
		nullString(string(r.CreatedBy)), formatTime(r.UpdatedAt),
	}
}

func (t *tables) CreateRequest(ctx context.Context, r timeoff.Request) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES (`+placeholders(21)+`)`, requestArgs(r)...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.ConflictError{Reason: fmt.Sprintf("request %s already exists", r.ID)}
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// UpdateRequest rewrites every mutable column, guarded by the expected status.
func (t *tables) UpdateRequest(ctx context.Context, r timeoff.Request, expected timeoff.Status) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE requests SET
			leave_type_id = ?, request_type = ?, start_date = ?, end_date = ?,
			start_time = ?, end_time = ?, days = ?, replacement_id = ?, replacement_name = ?,
			status = ?, cancellation_reason = ?, interruption_reason = ?, modification_reason = ?,
			attachment_path = ?, manager_approval_date = ?, hr_approval_date = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		r.LeaveTypeID, r.Type, r.StartDate.String(), r.EndDate.String(),
		nullString(r.StartTime), nullString(r.EndTime), r.Days.Value.String(),
		nullString(string(r.ReplacementID)), nullString(r.ReplacementName),
		r.Status, nullString(r.CancellationReason), nullString(r.InterruptionReason),
		nullString(r.ModificationReason), nullString(r.AttachmentPath),
		nullTime(r.ManagerApprovalDate), nullTime(r.HRApprovalDate), formatTime(r.UpdatedAt),
		r.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := t.GetRequest(ctx, r.ID); err != nil {
		return err
	}
	return generic.ErrConcurrentModification
}

func (t *tables) GetRequest(ctx context.Context, id string) (*timeoff.Request, error) {
	reqs, err := t.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, &generic.NotFoundError{Kind: "request", ID: id}
	}
	return &reqs[0], nil
}

// ListRequests translates the filter into SQL. Dates are ISO strings, so
// text comparison orders them correctly.
func (t *tables) ListRequests(ctx context.Context, f timeoff.RequestFilter) ([]timeoff.Request, error) {
	var where []string
	var args []any
	if len(f.EmployeeIDs) > 0 {
		where = append(where, "employee_id IN ("+placeholders(len(f.EmployeeIDs))+")")
		for _, id := range f.EmployeeIDs {
			args = append(args, id)
		}
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.Overlaps != nil {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, f.Overlaps.End.String(), f.Overlaps.Start.String())
	}
	switch {
	case f.ReplacementID != "" && f.ReplacementName != "":
		where = append(where, "(replacement_id = ? OR (COALESCE(replacement_id, '') = '' AND replacement_name = ?))")
		args = append(args, f.ReplacementID, f.ReplacementName)
	case f.ReplacementID != "":
		where = append(where, "replacement_id = ?")
		args = append(args, f.ReplacementID)
	case f.ReplacementName != "":
		where = append(where, "COALESCE(replacement_id, '') = '' AND replacement_name = ?")
		args = append(args, f.ReplacementName)
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date DESC, id ASC"
	return t.queryRequests(ctx, query, args...)
}

func (t *tables) queryRequests(ctx context.Context, query string, args ...any) ([]timeoff.Request, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeoff.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(rows *sql.Rows) (timeoff.Request, error) {
	var r timeoff.Request
	var start, end, days, requestDate, updatedAt string
	var startTime, endTime, replacementID, replacementName sql.NullString
	var cancel, interrupt, modify, attachment sql.NullString
	var managerDate, hrDate, createdBy sql.NullString

	err := rows.Scan(
		&r.ID, &r.EmployeeID, &r.LeaveTypeID, &r.Type, &start, &end,
		&startTime, &endTime, &days, &replacementID, &replacementName, &r.Status,
		&cancel, &interrupt, &modify, &attachment,
		&requestDate, &managerDate, &hrDate, &createdBy, &updatedAt,
	)
	if err != nil {
		return r, err
	}

	var errs []error
	var e error
	r.StartDate, e = generic.ParseDate(start)
	errs = append(errs, e)
	r.EndDate, e = generic.ParseDate(end)
	errs = append(errs, e)
	r.Days, e = parseDays(days)
	errs = append(errs, e)
	r.RequestDate, e = parseTime(requestDate)
	errs = append(errs, e)
	r.UpdatedAt, e = parseTime(updatedAt)
	errs = append(errs, e)
	r.ManagerApprovalDate, e = parseNullTime(managerDate)
	errs = append(errs, e)
	r.HRApprovalDate, e = parseNullTime(hrDate)
	errs = append(errs, e)
	if err := errors.Join(errs...); err != nil {
		return r, fmt.Errorf("failed to decode request %s: %w", r.ID, err)
	}

	r.StartTime = startTime.String
	r.EndTime = endTime.String
	r.ReplacementID = generic.EntityID(replacementID.String)
	r.ReplacementName = replacementName.String
	r.CancellationReason = cancel.String
	r.InterruptionReason = interrupt.String
	r.ModificationReason = modify.String
	r.AttachmentPath = attachment.String
	r.CreatedBy = generic.EntityID(createdBy.String)
	return r, nil
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

func (t *tables) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT id, date, name, recurring FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveHoliday inserts or updates by id. The unique date index turns a
// second holiday on the same date into a ConflictError.
func (t *tables) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, recurring)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring`,
		h.ID, h.Date.String(), h.Name, h.Recurring,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.ConflictError{Reason: fmt.Sprintf("a holiday already exists on %s", h.Date)}
		}
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (t *tables) DeleteHoliday(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "holiday", ID: id}
	}
	return nil
}

func (t *tables) ListSaturdays(ctx context.Context) ([]timeoff.SaturdayConfig, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT date, working FROM saturday_config ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeoff.SaturdayConfig
	for rows.Next() {
		var c timeoff.SaturdayConfig
		var date string
		if err := rows.Scan(&date, &c.Working); err != nil {
			return nil, err
		}
		if c.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tables) SaveSaturday(ctx context.Context, c timeoff.SaturdayConfig) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO saturday_config (date, working) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET working = excluded.working`,
		c.Date.String(), c.Working,
	)
	if err != nil {
		return fmt.Errorf("failed to save saturday: %w", err)
	}
	return nil
}

func (t *tables) ClearSaturdays(ctx context.Context) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM saturday_config`)
	return err
}
