package qna

import "errors"

// Failures of the question board workflows. Each one aborts the enclosing
// transaction so nothing written before it is kept.
var (
	ErrQuestionNotFound       = errors.New("question not found")
	ErrAnswerNotFound         = errors.New("answer not found")
	ErrAuthorMismatch         = errors.New("requestor is not the author")
	ErrInsufficientExperience = errors.New("stake exceeds total experience")
	ErrAlreadyAcceptedAnswer  = errors.New("question already has an accepted answer")
	ErrDeleteNotAllowed       = errors.New("question with an accepted answer cannot be deleted")
	ErrInvalidRequest         = errors.New("invalid request")
)
