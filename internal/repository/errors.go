package repository

import (
	"database/sql"
	"errors"
	"strings"

	"community-service/internal/apperr"

	"github.com/lib/pq"
)

const (
	_uniqueViolation     = "23505"
	_foreignKeyViolation = "23503"
	_checkViolation      = "23514"
)

// Pesan untuk constraint yang dikenal, supaya client tidak melihat error mentah dari postgres.
var constraintMessages = map[string]string{
	"users_username_key":   "Username already exists! Choose another one.",
	"companies_name_key":   "Company with this name or ABN already exists",
	"companies_abn_key":    "Company with this name or ABN already exists",
	"staffs_user_id_key":   "Staff already registered!",
	"clients_user_id_key":  "User is already registered as a Participant!",
	"clients_ndis_key":     "A Participant with this Ndis already exists!",
	"staffs_company_fkey":  "Company does not exist! Check the company ID.",
	"clients_company_fkey": "Company does not exist! Check the company ID.",
	"staffs_user_fkey":     "User not found!",
	"clients_user_fkey":    "User not found!",
	"tasks_staff_fkey":     "Staff not found!",
	"tasks_client_fkey":    "Participant not found!",
	"media_task_fkey":      "Task not found",
	"tasks_interval_check": "End time must be after start time!",
}

// translate maps driver errors onto apperr kinds. Anything unknown becomes
// Internal and keeps the original error for the log.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("%s not found!", title(entity))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		msg, known := constraintMessages[pqErr.Constraint]
		switch string(pqErr.Code) {
		case _uniqueViolation:
			if !known {
				msg = title(entity) + " already exists"
			}
			return apperr.Wrap(apperr.DuplicateKey, err, "%s", msg)
		case _foreignKeyViolation:
			if !known {
				msg = "Referenced record does not exist"
			}
			return apperr.Wrap(apperr.NotFound, err, "%s", msg)
		case _checkViolation:
			if pqErr.Constraint == "tasks_interval_check" {
				return apperr.Wrap(apperr.InvalidInterval, err, "%s", msg)
			}
			return apperr.Wrap(apperr.InvalidInput, err, "Invalid %s", entity)
		}
	}
	return apperr.Wrap(apperr.Internal, err, "%s query failed", entity)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
