package storage

import (
	stderrors "errors"
	"testing"

	"revue/internal/errors"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		ok     bool
		code   errors.ErrorCode
	}{
		{StatusInsertSuccess, "INSERT_SUCCESS", true, ""},
		{StatusDeleteSuccess, "DELETE_SUCCESS", true, ""},
		{StatusUpdateSuccess, "UPDATE_SUCCESS", true, ""},
		{StatusSearchSuccess, "SEARCH_SUCCESS", true, ""},
		{StatusAlreadyExists, "RECORD_ALREADY_EXIST", false, errors.AlreadyExists},
		{StatusNotExist, "RECORD_NOT_EXIST", false, errors.NotFound},
		{StatusConstraintViolation, "CONSTRAINT_VIOLATION", false, errors.ConstraintViolation},
		{StatusMalformedInput, "MALFORMED_INPUT", false, errors.MalformedInput},
		{StatusUnknownError, "UNKNOWN_ERROR", false, errors.Unknown},
		{StatusStorageUnavailable, "STORAGE_UNAVAILABLE", false, errors.StorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.status.OK(); got != tt.ok {
				t.Errorf("OK() = %v, want %v", got, tt.ok)
			}
			if got := tt.status.Code(); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
			if !tt.ok {
				if got := StatusFromCode(tt.code); got != tt.status {
					t.Errorf("StatusFromCode(%q) = %v, want %v", tt.code, got, tt.status)
				}
			}
		})
	}

	kinds := map[Status]Kind{
		StatusInsertSuccess:       KindSuccess,
		StatusNotExist:            KindBusiness,
		StatusConstraintViolation: KindBusiness,
		StatusUnknownError:        KindStorage,
		StatusStorageUnavailable:  KindStorage,
	}
	for s, want := range kinds {
		if got := s.Kind(); got != want {
			t.Errorf("%v.Kind() = %q, want %q", s, got, want)
		}
	}

	if got := Status(999).String(); got != "UNKNOWN_ERROR" {
		t.Errorf("unregistered status String() = %q", got)
	}
}

func TestResultErr(t *testing.T) {
	if err := Succeeded("x", StatusSearchSuccess).Err(); err != nil {
		t.Errorf("success Err() = %v, want nil", err)
	}

	err := Failed[string](StatusNotExist, "member 7 not found").Err()
	if err == nil {
		t.Fatal("failure Err() = nil")
	}
	if err.Error() != "[NOT_FOUND] RECORD_NOT_EXIST: member 7 not found" {
		t.Errorf("Err() message = %q", err.Error())
	}
	if !stderrors.Is(err, errors.New(errors.NotFound, "", nil)) {
		t.Error("Err() does not match NotFound")
	}
	if errors.CodeOf(err) != errors.NotFound {
		t.Errorf("CodeOf() = %q", errors.CodeOf(err))
	}
}
