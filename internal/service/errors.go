package service

import "errors"

var (
	// ErrNutritionGoalNotSet is returned when a user has not finished the goal questionnaire
	ErrNutritionGoalNotSet = errors.New("nutrition goal is not set")
	// ErrMaxRetries wraps the last failure of a retried AI call
	ErrMaxRetries = errors.New("max retries exceeded")
	// ErrJSONNotFound means the model answered without a ```json block
	ErrJSONNotFound = errors.New("json block not found in AI response")
	// ErrInvalidToken is returned for malformed, expired or foreign JWTs
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptyTranscript means speech recognition heard nothing
	ErrEmptyTranscript = errors.New("empty transcript")
	// ErrUploadFailed is returned when GigaChat rejects an attachment
	ErrUploadFailed = errors.New("file upload failed")
)

// ErrVoiceDisabled is returned for voice input when speech recognition is not configured
var ErrVoiceDisabled = errors.New("voice recognition is not configured")
