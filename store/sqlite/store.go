// Package sqlite implements the durable store on SQLite. Every mutating
// method runs inside one transaction so the fork sequence and submission
// writes are never observed half-applied.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithMessage(fault.ErrPersistenceUnavailable, err.Error())
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// mapErr translates driver errors into the shared failure taxonomy.
func mapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fault.ErrNotFound
	case errors.Is(err, sql.ErrConnDone):
		return errors.WithMessage(fault.ErrPersistenceUnavailable, err.Error())
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fault.ErrConflict
	}
	return errors.Wrap(err, op)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, name, password_hash, role, created_at
		FROM users WHERE email = ?`,
		email,
	))
}

func (s *Store) UserByID(ctx context.Context, id int64) (model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, name, password_hash, role, created_at
		FROM users WHERE id = ?`,
		id,
	))
}

func (s *Store) scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var name sql.NullString
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return model.User{}, mapErr(err, "scan user")
	}
	u.Name = name.String
	return u, nil
}

func (s *Store) CreateForm(ctx context.Context, form model.Form) (model.Form, model.FormVersion, error) {
	var version model.FormVersion
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		err := tx.QueryRowContext(ctx, `
			INSERT INTO forms
				(tenant_id, title, description, status, access_mode,
				 single_submission, public_token, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			form.TenantID, form.Title, form.Description, form.Status, form.AccessMode,
			form.SingleSubmission, form.PublicToken, form.CreatedBy, now,
		).Scan(&form.ID)
		if err != nil {
			return mapErr(err, "insert form")
		}
		form.CreatedAt = now

		err = tx.QueryRowContext(ctx, `
			INSERT INTO form_versions (form_id, version_number, is_active, created_at)
			VALUES (?, 1, 1, ?)
			RETURNING id`,
			form.ID, now,
		).Scan(&version.ID)
		if err != nil {
			return mapErr(err, "insert initial version")
		}
		version.FormID = form.ID
		version.VersionNumber = 1
		version.IsActive = true
		version.CreatedAt = now
		return nil
	})
	if err != nil {
		return model.Form{}, model.FormVersion{}, err
	}
	return form, version, nil
}

const formColumns = `
	id, tenant_id, title, description, status, access_mode,
	single_submission, submission_start, submission_end,
	public_token, created_by, created_at`

func (s *Store) FormByID(ctx context.Context, id int64) (model.Form, error) {
	return scanForm(s.db.QueryRowContext(ctx,
		`SELECT`+formColumns+` FROM forms WHERE id = ?`, id))
}

func (s *Store) FormByToken(ctx context.Context, token string) (model.Form, error) {
	return scanForm(s.db.QueryRowContext(ctx,
		`SELECT`+formColumns+` FROM forms WHERE public_token = ?`, token))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (model.Form, error) {
	var f model.Form
	var description sql.NullString
	var start, end sql.NullTime
	err := row.Scan(
		&f.ID, &f.TenantID, &f.Title, &description, &f.Status, &f.AccessMode,
		&f.SingleSubmission, &start, &end,
		&f.PublicToken, &f.CreatedBy, &f.CreatedAt,
	)
	if err != nil {
		return model.Form{}, mapErr(err, "scan form")
	}
	f.Description = description.String
	if start.Valid {
		t := start.Time
		f.SubmissionStart = &t
	}
	if end.Valid {
		t := end.Time
		f.SubmissionEnd = &t
	}
	return f, nil
}

func (s *Store) ListForms(ctx context.Context, tenantID, createdBy int64) ([]store.FormSummary, error) {
	query := `
		SELECT f.id, f.tenant_id, f.title, f.description, f.status, f.access_mode,
			f.single_submission, f.submission_start, f.submission_end,
			f.public_token, f.created_by, f.created_at,
			COUNT(s.id)
		FROM forms f
		LEFT OUTER JOIN submissions s ON (s.form_id = f.id)
		WHERE f.tenant_id = ?`
	args := []any{tenantID}
	if createdBy > 0 {
		query += ` AND f.created_by = ?`
		args = append(args, createdBy)
	}
	query += ` GROUP BY f.id ORDER BY f.created_at DESC, f.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "list forms")
	}
	defer rows.Close()

	var out []store.FormSummary
	for rows.Next() {
		var fs store.FormSummary
		var description sql.NullString
		var start, end sql.NullTime
		err = rows.Scan(
			&fs.ID, &fs.TenantID, &fs.Title, &description, &fs.Status, &fs.AccessMode,
			&fs.SingleSubmission, &start, &end,
			&fs.PublicToken, &fs.CreatedBy, &fs.CreatedAt,
			&fs.SubmissionCount,
		)
		if err != nil {
			return nil, mapErr(err, "scan form summary")
		}
		fs.Description = description.String
		if start.Valid {
			t := start.Time
			fs.SubmissionStart = &t
		}
		if end.Valid {
			t := end.Time
			fs.SubmissionEnd = &t
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

func (s *Store) UpdateFormSettings(ctx context.Context, id int64, set store.Settings) error {
	var assign []string
	var args []any
	add := func(column string, value any) {
		assign = append(assign, column+" = ?")
		args = append(args, value)
	}
	if set.Title != nil {
		add("title", *set.Title)
	}
	if set.Description != nil {
		add("description", *set.Description)
	}
	if set.Status != nil {
		add("status", *set.Status)
	}
	if set.AccessMode != nil {
		add("access_mode", *set.AccessMode)
	}
	if set.SingleSubmission != nil {
		add("single_submission", *set.SingleSubmission)
	}
	if set.ClearWindow {
		assign = append(assign, "submission_start = NULL", "submission_end = NULL")
	}
	if set.SubmissionStart != nil {
		add("submission_start", *set.SubmissionStart)
	}
	if set.SubmissionEnd != nil {
		add("submission_end", *set.SubmissionEnd)
	}
	if len(assign) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE forms SET "+strings.Join(assign, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return mapErr(err, "update form settings")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update form settings: verify")
	}
	if n < 1 {
		return fault.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteForm(ctx context.Context, id int64) error {
	// cascade FKs take versions, questions, options, submissions, answers
	res, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return mapErr(err, "delete form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete form: verify")
	}
	if n < 1 {
		return fault.ErrNotFound
	}
	return nil
}

func (s *Store) ActiveVersion(ctx context.Context, formID int64) (model.FormVersion, error) {
	var v model.FormVersion
	err := s.db.QueryRowContext(ctx, `
		SELECT id, form_id, version_number, is_active, created_at
		FROM form_versions
		WHERE form_id = ? AND is_active = 1`,
		formID,
	).Scan(&v.ID, &v.FormID, &v.VersionNumber, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return model.FormVersion{}, mapErr(err, "active version")
	}
	return v, nil
}

func (s *Store) VersionQuestions(ctx context.Context, versionID int64) ([]model.Question, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM form_versions WHERE id = ?`, versionID).Scan(&exists)
	if err != nil {
		return nil, mapErr(err, "version lookup")
	}
	return questionsTx(ctx, s.db, versionID)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func questionsTx(ctx context.Context, q querier, versionID int64) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, form_version_id, label, placeholder, help_text, field_type,
			required, order_index, validation_min, validation_max, validation_pattern
		FROM questions
		WHERE form_version_id = ?
		ORDER BY order_index, id`,
		versionID,
	)
	if err != nil {
		return nil, mapErr(err, "version questions")
	}
	defer rows.Close()

	var out []model.Question
	index := map[int64]int{}
	for rows.Next() {
		var question model.Question
		var placeholder, help, pattern sql.NullString
		var min, max sql.NullFloat64
		err = rows.Scan(
			&question.ID, &question.FormVersionID, &question.Label,
			&placeholder, &help, &question.FieldType,
			&question.Required, &question.OrderIndex, &min, &max, &pattern,
		)
		if err != nil {
			return nil, mapErr(err, "scan question")
		}
		question.Placeholder = placeholder.String
		question.HelpText = help.String
		question.Pattern = pattern.String
		if min.Valid {
			v := min.Float64
			question.Min = &v
		}
		if max.Valid {
			v := max.Float64
			question.Max = &v
		}
		index[question.ID] = len(out)
		out = append(out, question)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "version questions")
	}
	if len(out) == 0 {
		return out, nil
	}

	optRows, err := q.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.label, o.value, o.order_index
		FROM question_options o
		INNER JOIN questions qq ON (qq.id = o.question_id)
		WHERE qq.form_version_id = ?
		ORDER BY o.question_id, o.order_index, o.id`,
		versionID,
	)
	if err != nil {
		return nil, mapErr(err, "question options")
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt model.QuestionOption
		var label, value sql.NullString
		err = optRows.Scan(&opt.ID, &opt.QuestionID, &label, &value, &opt.OrderIndex)
		if err != nil {
			return nil, mapErr(err, "scan option")
		}
		opt.Label = label.String
		opt.Value = value.String
		if i, ok := index[opt.QuestionID]; ok {
			out[i].Options = append(out[i].Options, opt)
		}
	}
	return out, optRows.Err()
}

func (s *Store) SubmissionCount(ctx context.Context, versionID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE form_version_id = ?`, versionID,
	).Scan(&count)
	if err != nil {
		return 0, mapErr(err, "submission count")
	}
	return count, nil
}

func (s *Store) PrepareSchemaEdit(ctx context.Context, formID int64) (model.FormVersion, map[int64]int64, error) {
	var target model.FormVersion
	var remap map[int64]int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var status model.FormStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM forms WHERE id = ?`, formID).Scan(&status)
		if err != nil {
			return mapErr(err, "load form")
		}

		var active model.FormVersion
		err = tx.QueryRowContext(ctx, `
			SELECT id, form_id, version_number, is_active, created_at
			FROM form_versions
			WHERE form_id = ? AND is_active = 1`,
			formID,
		).Scan(&active.ID, &active.FormID, &active.VersionNumber, &active.IsActive, &active.CreatedAt)
		if err != nil {
			return mapErr(err, "load active version")
		}

		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM submissions WHERE form_version_id = ?`, active.ID,
		).Scan(&count)
		if err != nil {
			return mapErr(err, "count submissions")
		}

		if !store.NeedsFork(status, count) {
			target = active
			return nil
		}

		var maxVersion int
		err = tx.QueryRowContext(ctx,
			`SELECT MAX(version_number) FROM form_versions WHERE form_id = ?`, formID,
		).Scan(&maxVersion)
		if err != nil {
			return mapErr(err, "max version number")
		}

		now := time.Now()
		forked := model.FormVersion{
			FormID:        formID,
			VersionNumber: maxVersion + 1,
			IsActive:      true,
			CreatedAt:     now,
		}
		// UNIQUE(form_id, version_number) turns a racing fork into a
		// conflict instead of a gap.
		err = tx.QueryRowContext(ctx, `
			INSERT INTO form_versions (form_id, version_number, is_active, created_at)
			VALUES (?, ?, 1, ?)
			RETURNING id`,
			forked.FormID, forked.VersionNumber, now,
		).Scan(&forked.ID)
		if err != nil {
			return mapErr(err, "insert forked version")
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE form_versions SET is_active = 0 WHERE id = ?`, active.ID)
		if err != nil {
			return mapErr(err, "deactivate old version")
		}

		questions, err := questionsTx(ctx, tx, active.ID)
		if err != nil {
			return err
		}
		remap = make(map[int64]int64, len(questions))
		for _, q := range questions {
			var copiedID int64
			err = tx.QueryRowContext(ctx, `
				INSERT INTO questions
					(form_version_id, label, placeholder, help_text, field_type,
					 required, order_index, validation_min, validation_max, validation_pattern)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				forked.ID, q.Label, q.Placeholder, q.HelpText, q.FieldType,
				q.Required, q.OrderIndex, q.Min, q.Max, q.Pattern,
			).Scan(&copiedID)
			if err != nil {
				return mapErr(err, "copy question")
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO question_options (question_id, label, value, order_index)
				SELECT ?, label, value, order_index
				FROM question_options
				WHERE question_id = ?`,
				copiedID, q.ID,
			)
			if err != nil {
				return mapErr(err, "copy options")
			}
			remap[q.ID] = copiedID
		}

		target = forked
		return nil
	})
	if err != nil {
		return model.FormVersion{}, nil, err
	}
	return target, remap, nil
}

func (s *Store) guardActive(ctx context.Context, tx *sql.Tx, versionID int64) error {
	var active bool
	err := tx.QueryRowContext(ctx,
		`SELECT is_active FROM form_versions WHERE id = ?`, versionID).Scan(&active)
	if err != nil {
		return mapErr(err, "version lookup")
	}
	if !active {
		// frozen versions are never mutated
		return fault.ErrConflict
	}
	return nil
}

func (s *Store) AddQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.guardActive(ctx, tx, q.FormVersionID); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO questions
				(form_version_id, label, placeholder, help_text, field_type,
				 required, order_index, validation_min, validation_max, validation_pattern)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			q.FormVersionID, q.Label, q.Placeholder, q.HelpText, q.FieldType,
			q.Required, q.OrderIndex, q.Min, q.Max, q.Pattern,
		).Scan(&q.ID)
		if err != nil {
			return mapErr(err, "insert question")
		}
		return insertOptions(ctx, tx, q.ID, q.Options)
	})
	if err != nil {
		return model.Question{}, err
	}
	return q, nil
}

// insertOptions writes the options in order and fills in their generated ids.
func insertOptions(ctx context.Context, tx *sql.Tx, questionID int64, options []model.QuestionOption) error {
	if len(options) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_options (question_id, label, value, order_index)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return errors.Wrap(err, "prepare options insert")
	}
	defer stmt.Close()

	for i := range options {
		opt := &options[i]
		err := stmt.QueryRowContext(ctx, questionID, opt.Label, opt.Value, i).Scan(&opt.ID)
		if err != nil {
			return mapErr(err, "insert option")
		}
		opt.QuestionID = questionID
		opt.OrderIndex = i
	}
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q model.Question) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.guardActive(ctx, tx, q.FormVersionID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE questions
			SET label = ?, placeholder = ?, help_text = ?, field_type = ?,
				required = ?, validation_min = ?, validation_max = ?, validation_pattern = ?
			WHERE id = ? AND form_version_id = ?`,
			q.Label, q.Placeholder, q.HelpText, q.FieldType,
			q.Required, q.Min, q.Max, q.Pattern,
			q.ID, q.FormVersionID,
		)
		if err != nil {
			return mapErr(err, "update question")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "update question: verify")
		}
		if n < 1 {
			return fault.ErrNotFound
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM question_options WHERE question_id = ?`, q.ID)
		if err != nil {
			return mapErr(err, "replace options")
		}
		return insertOptions(ctx, tx, q.ID, q.Options)
	})
}

func (s *Store) DeleteQuestion(ctx context.Context, versionID, questionID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.guardActive(ctx, tx, versionID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM questions WHERE id = ? AND form_version_id = ?`,
			questionID, versionID,
		)
		if err != nil {
			return mapErr(err, "delete question")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "delete question: verify")
		}
		if n < 1 {
			return fault.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ReorderQuestions(ctx context.Context, versionID int64, orderedIDs []int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.guardActive(ctx, tx, versionID); err != nil {
			return err
		}
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM questions WHERE form_version_id = ?`, versionID,
		).Scan(&count)
		if err != nil {
			return mapErr(err, "reorder: count")
		}
		if count != len(orderedIDs) {
			return fault.ErrNotFound
		}

		stmt, err := tx.PrepareContext(ctx, `
			UPDATE questions SET order_index = ?
			WHERE id = ? AND form_version_id = ?`)
		if err != nil {
			return errors.Wrap(err, "reorder: prepare")
		}
		defer stmt.Close()

		for i, id := range orderedIDs {
			res, err := stmt.ExecContext(ctx, i, id, versionID)
			if err != nil {
				return mapErr(err, "reorder: update")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.Wrap(err, "reorder: verify")
			}
			if n < 1 {
				return fault.ErrNotFound
			}
		}
		return nil
	})
}

func (s *Store) HasSubmission(ctx context.Context, formID, userID int64, guestToken string) (bool, error) {
	query := `SELECT 1 FROM submissions WHERE form_id = ?`
	args := []any{formID}
	if userID != 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	} else {
		query += ` AND guest_token = ?`
		args = append(args, guestToken)
	}
	var found bool
	err := s.db.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&found)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, mapErr(err, "has submission")
	}
	return found, nil
}

func (s *Store) CreateSubmission(ctx context.Context, sub model.Submission, answers []model.Answer, single bool) (model.Submission, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if single {
			query := `SELECT 1 FROM submissions WHERE form_id = ?`
			args := []any{sub.FormID}
			if sub.UserID != 0 {
				query += ` AND user_id = ?`
				args = append(args, sub.UserID)
			} else {
				query += ` AND guest_token = ?`
				args = append(args, sub.GuestToken)
			}
			var dup bool
			err := tx.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&dup)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return mapErr(err, "duplicate check")
			}
			if dup {
				return fault.ErrDuplicateSubmission
			}
		}

		var userID any
		if sub.UserID != 0 {
			userID = sub.UserID
		}
		var completion any
		if sub.CompletionTimeMS > 0 {
			completion = sub.CompletionTimeMS
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO submissions
				(form_id, form_version_id, user_id, guest_token, submitted_at, completion_time_ms)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			sub.FormID, sub.FormVersionID, userID, sub.GuestToken, sub.SubmittedAt, completion,
		).Scan(&sub.ID)
		if err != nil {
			return mapErr(err, "insert submission")
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO answers (submission_id, question_id, value)
			VALUES (?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "prepare answers insert")
		}
		defer stmt.Close()

		for _, a := range answers {
			raw, err := a.Value.Encode()
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, sub.ID, a.QuestionID, raw); err != nil {
				return mapErr(err, "insert answer")
			}
		}
		return nil
	})
	if err != nil {
		return model.Submission{}, err
	}
	return sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, formID int64) ([]store.SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.form_id, s.form_version_id, s.user_id, s.guest_token,
			s.submitted_at, s.completion_time_ms, u.email
		FROM submissions s
		LEFT OUTER JOIN users u ON (u.id = s.user_id)
		WHERE s.form_id = ?
		ORDER BY s.submitted_at DESC, s.id DESC`,
		formID,
	)
	if err != nil {
		return nil, mapErr(err, "list submissions")
	}
	defer rows.Close()

	var out []store.SubmissionRecord
	index := map[int64]int{}
	for rows.Next() {
		var rec store.SubmissionRecord
		var userID, completion sql.NullInt64
		var guest, email sql.NullString
		err = rows.Scan(
			&rec.ID, &rec.FormID, &rec.FormVersionID, &userID, &guest,
			&rec.SubmittedAt, &completion, &email,
		)
		if err != nil {
			return nil, mapErr(err, "scan submission")
		}
		rec.UserID = userID.Int64
		rec.GuestToken = guest.String
		rec.CompletionTimeMS = completion.Int64
		switch {
		case email.Valid:
			rec.Submitter = email.String
		case guest.Valid && guest.String != "":
			rec.Submitter = guest.String
		default:
			rec.Submitter = "anonymous"
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "list submissions")
	}
	if len(out) == 0 {
		return out, nil
	}

	answerRows, err := s.db.QueryContext(ctx, `
		SELECT a.submission_id, q.id, q.label, q.field_type, a.value
		FROM answers a
		INNER JOIN questions q ON (q.id = a.question_id)
		INNER JOIN submissions s ON (s.id = a.submission_id)
		WHERE s.form_id = ?
		ORDER BY a.submission_id, q.order_index, q.id`,
		formID,
	)
	if err != nil {
		return nil, mapErr(err, "list answers")
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var submissionID int64
		var rec store.AnswerRecord
		var raw string
		err = answerRows.Scan(&submissionID, &rec.QuestionID, &rec.Label, &rec.FieldType, &raw)
		if err != nil {
			return nil, mapErr(err, "scan answer")
		}
		rec.Value, err = model.DecodeValue(rec.FieldType, raw)
		if err != nil {
			return nil, err
		}
		if i, ok := index[submissionID]; ok {
			out[i].Answers = append(out[i].Answers, rec)
		}
	}
	return out, answerRows.Err()
}

func (s *Store) SubmissionByID(ctx context.Context, formID, submissionID int64) (store.SubmissionRecord, error) {
	var rec store.SubmissionRecord
	var userID, completion sql.NullInt64
	var guest, email sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.form_id, s.form_version_id, s.user_id, s.guest_token,
			s.submitted_at, s.completion_time_ms, u.email
		FROM submissions s
		LEFT OUTER JOIN users u ON (u.id = s.user_id)
		WHERE s.id = ? AND s.form_id = ?`,
		submissionID, formID,
	).Scan(
		&rec.ID, &rec.FormID, &rec.FormVersionID, &userID, &guest,
		&rec.SubmittedAt, &completion, &email,
	)
	if err != nil {
		return store.SubmissionRecord{}, mapErr(err, "submission by id")
	}
	rec.UserID = userID.Int64
	rec.GuestToken = guest.String
	rec.CompletionTimeMS = completion.Int64
	switch {
	case email.Valid:
		rec.Submitter = email.String
	case guest.Valid && guest.String != "":
		rec.Submitter = guest.String
	default:
		rec.Submitter = "anonymous"
	}

	answerRows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.label, q.field_type, a.value
		FROM answers a
		INNER JOIN questions q ON (q.id = a.question_id)
		WHERE a.submission_id = ?
		ORDER BY q.order_index, q.id`,
		submissionID,
	)
	if err != nil {
		return store.SubmissionRecord{}, mapErr(err, "submission answers")
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var answer store.AnswerRecord
		var raw string
		err = answerRows.Scan(&answer.QuestionID, &answer.Label, &answer.FieldType, &raw)
		if err != nil {
			return store.SubmissionRecord{}, mapErr(err, "scan answer")
		}
		answer.Value, err = model.DecodeValue(answer.FieldType, raw)
		if err != nil {
			return store.SubmissionRecord{}, err
		}
		rec.Answers = append(rec.Answers, answer)
	}
	return rec, answerRows.Err()
}

func (s *Store) CreateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	schema, err := json.Marshal(t.Schema)
	if err != nil {
		return model.Template{}, errors.Wrap(err, "marshal template schema")
	}
	now := time.Now()
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO templates (tenant_id, name, category, visibility, schema_json, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		t.TenantID, t.Name, t.Category, t.Visibility, string(schema), t.CreatedBy, now,
	).Scan(&t.ID)
	if err != nil {
		return model.Template{}, mapErr(err, "insert template")
	}
	t.CreatedAt = now
	return t, nil
}

func (s *Store) TemplateByID(ctx context.Context, id int64) (model.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, category, visibility, schema_json, created_by, created_at
		FROM templates WHERE id = ?`,
		id,
	)
	return scanTemplate(row)
}

func scanTemplate(row rowScanner) (model.Template, error) {
	var t model.Template
	var category sql.NullString
	var schema string
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &category, &t.Visibility, &schema, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return model.Template{}, mapErr(err, "scan template")
	}
	t.Category = category.String
	if err := json.Unmarshal([]byte(schema), &t.Schema); err != nil {
		return model.Template{}, errors.Wrap(err, "unmarshal template schema")
	}
	return t, nil
}

func (s *Store) ListTemplates(ctx context.Context, f store.TemplateFilter) ([]model.Template, error) {
	var query string
	var args []any
	switch f.Visibility {
	case "private":
		query = `WHERE created_by = ? AND visibility = 'private'`
		args = []any{f.UserID}
	case "tenant":
		query = `WHERE tenant_id = ? AND visibility IN ('private', 'tenant')`
		args = []any{f.TenantID}
	default:
		query = `WHERE visibility = 'public'
			OR (tenant_id = ? AND visibility = 'tenant')
			OR (created_by = ? AND visibility = 'private')`
		args = []any{f.TenantID, f.UserID}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, category, visibility, schema_json, created_by, created_at
		FROM templates `+query+`
		ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, mapErr(err, "list templates")
	}
	defer rows.Close()

	var out []model.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) StoreRefreshToken(ctx context.Context, credential, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`,
		credential, tokenID, refreshTokenID, expiration,
	)
	return mapErr(err, "store refresh token")
}

func (s *Store) ConsumeRefreshToken(ctx context.Context, credential, tokenID, refreshTokenID string) (time.Time, error) {
	var expiration time.Time
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM tokens
		WHERE username = ? AND token_id = ? AND refresh_token_id = ?
		RETURNING expiration`,
		credential, tokenID, refreshTokenID,
	).Scan(&expiration)
	if err != nil {
		return time.Time{}, mapErr(err, "consume refresh token")
	}
	return expiration, nil
}
