package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	LOCKED             ErrCode = "LOCKED"
	CONFLICT           ErrCode = "CONFLICT"
	SLOT_NOT_AVAILABLE ErrCode = "SLOT_NOT_AVAILABLE"
	INVALID_SCHEDULE   ErrCode = "INVALID_SCHEDULE"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("resource not found")
	ErrLocked           = errors.New("resource is locked")
	ErrConflict         = errors.New("conflict")
	ErrSlotNotAvailable = errors.New("slot is not available")
	ErrInvalidSchedule  = errors.New("invalid weekly schedule")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
