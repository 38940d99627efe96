package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
)

// UserErrors
var (
	ErrUserNotFound         = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailTaken           = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUserInactive         = errors.New("user account is inactive")
	ErrOldPasswordWrong     = errors.New("current password is incorrect")
	ErrNoPasswordCredential = errors.New("account has no password, sign in with the linked provider")
	ErrCannotDeleteSelf     = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole  = errors.New("cannot change your own role")
)

// BookingErrors
var (
	ErrBookingNotFound   = fmt.Errorf("%w: booking not found", ErrNotFound)
	ErrSlotConflict      = fmt.Errorf("%w: time slot already booked", ErrConflict)
	ErrInvalidTransition = errors.New("booking is no longer pending")
)
