package services

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("poll not found")
	ErrPollNotActive      = errors.New("poll is not active")
	ErrPollExpired        = errors.New("poll has expired")
	ErrPollStillActive    = errors.New("poll is still active")
	ErrAlreadyPredicted   = errors.New("already predicted")
	ErrAlreadyClosed      = errors.New("poll already closed")
	ErrAlreadyDistributed = errors.New("rewards already distributed")
	ErrInsufficientStake  = errors.New("stake amount too low")
	ErrInvalidOption      = errors.New("invalid option")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrPaused             = errors.New("platform is paused")
	ErrNotPaused          = errors.New("platform is not paused")
)
