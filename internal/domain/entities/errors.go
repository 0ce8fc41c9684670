package entities

import "errors"

// Domain errors
var (
	// Shift errors
	ErrShiftNotFound      = errors.New("shift not found")
	ErrShiftAlreadyExists = errors.New("shift already exists")

	// Transcription errors
	ErrTranscriptionNotFound      = errors.New("transcription not found")
	ErrTranscriptionAlreadyExists = errors.New("transcription already exists")

	// ErrStatusConflict is returned when a conditional update finds the record
	// in a status other than the expected ones
	ErrStatusConflict = errors.New("status changed concurrently")
)
