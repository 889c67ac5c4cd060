package storage

import (
	"revue/internal/errors"
)

// Status is the outcome code carried by every repository result
type Status int

const (
	StatusInsertSuccess Status = 201
	StatusDeleteSuccess Status = 202
	StatusUpdateSuccess Status = 203
	StatusSearchSuccess Status = 204

	StatusAlreadyExists       Status = 401
	StatusNotExist            Status = 402
	StatusConstraintViolation Status = 409
	StatusMalformedInput      Status = 422

	StatusUnknownError       Status = 500
	StatusStorageUnavailable Status = 503
)

var statusNames = map[Status]string{
	StatusInsertSuccess:       "INSERT_SUCCESS",
	StatusDeleteSuccess:       "DELETE_SUCCESS",
	StatusUpdateSuccess:       "UPDATE_SUCCESS",
	StatusSearchSuccess:       "SEARCH_SUCCESS",
	StatusAlreadyExists:       "RECORD_ALREADY_EXIST",
	StatusNotExist:            "RECORD_NOT_EXIST",
	StatusConstraintViolation: "CONSTRAINT_VIOLATION",
	StatusMalformedInput:      "MALFORMED_INPUT",
	StatusUnknownError:        "UNKNOWN_ERROR",
	StatusStorageUnavailable:  "STORAGE_UNAVAILABLE",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN_ERROR"
}

// OK reports a success kind
func (s Status) OK() bool {
	return s >= 200 && s < 300
}

// Kind groups statuses for callers that only care about the failure class
type Kind string

const (
	KindSuccess  Kind = "success"
	KindBusiness Kind = "business"
	KindStorage  Kind = "storage"
)

// Kind reports whether s is a success, a business failure or a storage failure
func (s Status) Kind() Kind {
	switch {
	case s.OK():
		return KindSuccess
	case s >= 400 && s < 500:
		return KindBusiness
	default:
		return KindStorage
	}
}

// Code maps a failure status to the error taxonomy. Successes map to "".
func (s Status) Code() errors.ErrorCode {
	switch s {
	case StatusInsertSuccess, StatusDeleteSuccess, StatusUpdateSuccess, StatusSearchSuccess:
		return ""
	case StatusAlreadyExists:
		return errors.AlreadyExists
	case StatusNotExist:
		return errors.NotFound
	case StatusConstraintViolation:
		return errors.ConstraintViolation
	case StatusMalformedInput:
		return errors.MalformedInput
	case StatusStorageUnavailable:
		return errors.StorageUnavailable
	default:
		return errors.Unknown
	}
}

// StatusFromCode is the inverse of Status.Code for failures
func StatusFromCode(code errors.ErrorCode) Status {
	switch code {
	case errors.AlreadyExists:
		return StatusAlreadyExists
	case errors.NotFound:
		return StatusNotExist
	case errors.ConstraintViolation:
		return StatusConstraintViolation
	case errors.MalformedInput:
		return StatusMalformedInput
	case errors.StorageUnavailable:
		return StatusStorageUnavailable
	default:
		return StatusUnknownError
	}
}

// Result is what every repository operation returns. Callers branch on Status;
// Detail is for humans only.
type Result[T any] struct {
	Payload T      `json:"payload"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// OK reports whether the operation succeeded
func (r Result[T]) OK() bool {
	return r.Status.OK()
}

// Err returns nil on success and an *errors.Error carrying the status code otherwise
func (r Result[T]) Err() error {
	if r.Status.OK() {
		return nil
	}
	msg := r.Status.String()
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return errors.New(r.Status.Code(), msg, nil)
}

// Succeeded builds a success result
func Succeeded[T any](payload T, status Status) Result[T] {
	return Result[T]{Payload: payload, Status: status}
}

// Failed builds a failure result with a zero payload
func Failed[T any](status Status, detail string) Result[T] {
	return Result[T]{Status: status, Detail: detail}
}
