package domain

import "errors"

// Identity
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = errors.New("all fields are required")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("username must be alphanumeric (3-15 characters)")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserNotFound       = errors.New("user not found")
)

// Catalog and inventory
var (
	ErrFlightNotFound    = errors.New("flight not found")
	ErrFlightUnavailable = errors.New("flight is unavailable")
	ErrInvalidStatus     = errors.New("unknown flight status")
	ErrSeatConflict      = errors.New("seat is already occupied")
	ErrInvalidSeat       = errors.New("invalid seat")
)

// Ledger
var (
	ErrSeatCountMismatch    = errors.New("seat count does not match person count")
	ErrInvalidPersons       = errors.New("person count must be between 1 and 9")
	ErrInvalidFareClass     = errors.New("unknown fare class")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNotOwner             = errors.New("booking belongs to another user")
	ErrAlreadyCheckedIn     = errors.New("booking is already checked in")
	ErrNotCheckedIn         = errors.New("booking is not checked in")
	ErrDuplicatePNR         = errors.New("pnr already issued")
)

// ErrPersistence wraps every datastore failure that is not one of the above.
var ErrPersistence = errors.New("persistence failure")
