package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Test errors
var (
	ErrTestNotFound      = errors.New("placement test not found")
	ErrTestNotActive     = errors.New("placement test is not in progress")
	ErrNoPendingQuestion = errors.New("no current question to answer")
	ErrVersionConflict   = errors.New("placement test was modified concurrently")
)

// Content errors
var (
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrDomainNotFound     = errors.New("domain not found")
	ErrNodeNotFound       = errors.New("learning node not found")
	ErrNoDomains          = errors.New("subject has no domains to test")
	ErrContentUnavailable = errors.New("subject has no learning content available")
)

// Question errors
var (
	ErrQuestionGeneration = errors.New("question generation failed")
)

// Profile errors
var (
	ErrProfileNotFound = errors.New("placement profile not found")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
