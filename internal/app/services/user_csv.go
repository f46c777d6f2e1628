package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/csvio"
	"github.com/yigit/examadmin/internal/pkg/events"
	"github.com/yigit/examadmin/internal/pkg/filestorage"
	"github.com/yigit/examadmin/internal/pkg/metrics"
	"github.com/yigit/examadmin/internal/pkg/validation"
)

// ExportUsersCSV writes every user. The password column is always empty and
// studentIndex and major are filled only for users with a student profile.
func (s *CSVExchangeService) ExportUsersCSV(ctx context.Context) ([]byte, error) {
	users, err := s.repos.Users.ListWithStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	w := csvio.NewWriter(UsersCSVHeader...)
	for _, u := range users {
		var index, major string
		if u.Student != nil {
			index, major = u.Student.StudentIndex, u.Student.Major
		}
		if err := w.Write(u.FirstName, u.LastName, u.Email, "", string(u.RoleType), index, major); err != nil {
			return nil, fmt.Errorf("failed to write user row: %w", err)
		}
	}
	return w.Bytes()
}

// userRow is one parsed line of a user import
type userRow struct {
	firstName    string
	lastName     string
	email        string
	password     string
	role         models.RoleType
	studentIndex string
	major        string
	hash         string
}

func roleColumn(rec csvio.Record) string {
	if v := rec.Get("academicRole"); v != "" {
		return v
	}
	return rec.Get("userRole")
}

func parseUserRow(rec csvio.Record) (*userRow, error) {
	if rec.Err != nil {
		return nil, apperrors.NewValidationError("malformed csv row")
	}

	row := &userRow{
		firstName:    rec.Get("firstName"),
		lastName:     rec.Get("lastName"),
		email:        strings.ToLower(rec.Get("email")),
		password:     rec.Get("password"),
		studentIndex: rec.Get("studentIndex"),
		major:        rec.Get("major"),
	}

	var missing []string
	if row.firstName == "" {
		missing = append(missing, "firstName")
	}
	if row.lastName == "" {
		missing = append(missing, "lastName")
	}
	if row.email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return row, apperrors.NewValidationError(strings.Join(missing, ", ") + " required")
	}

	role, ok := models.ParseRoleType(roleColumn(rec))
	if !ok {
		return row, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", roleColumn(rec)))
	}
	row.role = role

	if role == models.RoleStudent && (row.studentIndex == "" || row.major == "") {
		return row, apperrors.NewValidationError("studentIndex and major are required for STUDENT")
	}
	return row, checkUserRowLengths(row)
}

// checkUserRowLengths enforces only the column widths and bcrypt's input
// limit; imported values are otherwise taken as they are.
func checkUserRowLengths(row *userRow) error {
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"firstName", row.firstName, validation.NameMaxLength},
		{"lastName", row.lastName, validation.NameMaxLength},
		{"email", row.email, validation.EmailMaxLength},
		{"password", row.password, validation.PasswordMaxLength},
		{"studentIndex", row.studentIndex, validation.StudentIndexMaxLength},
		{"major", row.major, validation.MajorMaxLength},
	}
	for _, l := range limits {
		if len(l.value) > l.max {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", l.field, l.max))
		}
	}
	return nil
}

// parseUserRows validates every record and hashes the supplied passwords.
// It runs before the import transaction is opened.
func (s *CSVExchangeService) parseUserRows(records []csvio.Record) ([]*userRow, []error) {
	rows := make([]*userRow, len(records))
	errs := make([]error, len(records))
	for i, rec := range records {
		row, err := parseUserRow(rec)
		rows[i] = row
		if err != nil {
			errs[i] = err
			continue
		}
		if row.password == "" {
			continue
		}
		hash, err := s.hasher.Hash(row.password)
		if err != nil {
			errs[i] = fmt.Errorf("failed to hash password: %w", err)
			continue
		}
		row.hash = hash
	}
	return rows, errs
}

// ImportUsersCSV creates or updates users matched by email. Each row runs in
// its own savepoint; a failing row is reported and the rest continue.
func (s *CSVExchangeService) ImportUsersCSV(ctx context.Context, filename string, content []byte) (result *dto.UserImportResult, err error) {
	defer func() {
		metrics.CSVImports.WithLabelValues(importKindUsers, metrics.Outcome(err)).Inc()
	}()

	table, err := csvio.ReadRecords(bytes.NewReader(content))
	if err != nil {
		if errors.Is(err, csvio.ErrMissingHeader) {
			return nil, apperrors.NewValidationError("csv header row is required")
		}
		return nil, err
	}

	var missing []string
	for _, col := range []string{"firstName", "lastName", "email"} {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if !table.HasColumn("academicRole") && !table.HasColumn("userRole") {
		missing = append(missing, "academicRole")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required columns: " + strings.Join(missing, ", "))
	}
	s.keep(filestorage.CategoryUsers, filename, content)

	rows, rowErrs := s.parseUserRows(table.Records)

	result = &dto.UserImportResult{Errors: []dto.UserImportRowError{}}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for i, rec := range table.Records {
			row, err := rows[i], rowErrs[i]
			if err == nil {
				var created bool
				err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
					var rowErr error
					created, rowErr = s.upsertUser(ctx, row)
					return rowErr
				})
				if err == nil {
					if created {
						result.Created++
					} else {
						result.Updated++
					}
					continue
				}
			}

			rowErr := dto.UserImportRowError{Row: rec.Line, Error: apperrors.Message(err)}
			if row != nil {
				rowErr.Email = row.email
			}
			result.Errors = append(result.Errors, rowErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CSVRows.WithLabelValues(importKindUsers, "created").Add(float64(result.Created))
	metrics.CSVRows.WithLabelValues(importKindUsers, "updated").Add(float64(result.Updated))
	metrics.CSVRows.WithLabelValues(importKindUsers, "failed").Add(float64(len(result.Errors)))
	s.logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("failed", len(result.Errors)).
		Msg("Users imported")
	s.publish(ctx, events.TypeUsersImported, events.UsersImported{
		Created: result.Created,
		Updated: result.Updated,
		Failed:  len(result.Errors),
	})
	return result, nil
}

// upsertUser applies one row and reports whether a new user was created
func (s *CSVExchangeService) upsertUser(ctx context.Context, row *userRow) (bool, error) {
	existing, err := s.repos.Users.GetByEmail(ctx, row.email)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	if existing == nil {
		if row.hash == "" {
			return false, apperrors.NewValidationError("password is required for new users")
		}
		u := &models.User{
			Email:     row.email,
			Password:  row.hash,
			FirstName: row.firstName,
			LastName:  row.lastName,
			RoleType:  row.role,
			IsActive:  true,
		}
		if err := s.repos.Users.Create(ctx, u); err != nil {
			return false, err
		}
		if row.role == models.RoleStudent {
			st := &models.Student{UserID: u.ID, StudentIndex: row.studentIndex, Major: row.major}
			if err := s.repos.Students.Create(ctx, st); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	existing.FirstName = row.firstName
	existing.LastName = row.lastName
	existing.RoleType = row.role
	if row.hash != "" {
		existing.Password = row.hash
	}
	if err := s.repos.Users.Update(ctx, existing); err != nil {
		return false, err
	}

	profile, err := s.repos.Students.GetByUserID(ctx, existing.ID)
	if err != nil && !errors.Is(err, apperrors.ErrStudentNotFound) {
		return false, fmt.Errorf("failed to look up student profile: %w", err)
	}

	switch {
	case row.role == models.RoleStudent && profile == nil:
		st := &models.Student{UserID: existing.ID, StudentIndex: row.studentIndex, Major: row.major}
		if err := s.repos.Students.Create(ctx, st); err != nil {
			return false, err
		}
	case row.role == models.RoleStudent:
		profile.StudentIndex = row.studentIndex
		profile.Major = row.major
		if err := s.repos.Students.Update(ctx, profile); err != nil {
			return false, err
		}
	case profile != nil:
		if err := removeStudentProfile(ctx, s.repos, profile.ID); err != nil {
			return false, err
		}
	}
	return false, nil
}

// removeStudentProfile deletes a student with its registrations and enrollments
func removeStudentProfile(ctx context.Context, repos Repos, studentID int64) error {
	if err := repos.Registrations.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("failed to delete registrations: %w", err)
	}
	if err := repos.Enrollments.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("failed to delete enrollments: %w", err)
	}
	return repos.Students.Delete(ctx, studentID)
}
