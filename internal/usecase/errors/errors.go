package errors

import "errors"

// ErrInvalidInput marks caller mistakes that are not tied to a single field
var ErrInvalidInput = errors.New("invalid input")

// Shift errors
var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrShiftAlreadyExists = errors.New("shift already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrEmptyPatch         = errors.New("no fields to update")
)

// Transcription errors
var (
	ErrTranscriptionNotFound = errors.New("transcription not found")
	ErrTranscriptNotReady    = errors.New("transcription is not completed")
	ErrAudioMissing          = errors.New("no stored audio for shift")
	ErrServiceShuttingDown   = errors.New("transcription service is shutting down")
	ErrAudioStore            = errors.New("audio storage failed")
)

// Analysis errors
var (
	ErrMalformedModelOutput = errors.New("malformed model output")
)
