package service

import (
	"errors"
	"unicode/utf8"

	"stories/internal/models"
	"stories/internal/upload"
)

const (
	// MaxTextLength is where text story bodies are cut off.
	MaxTextLength = 20000
	// MaxProgrammingLanguageIDLength is the longest language id kept; longer ids are dropped.
	MaxProgrammingLanguageIDLength = 40
	// MaxFilenameLength is the longest filename kept; longer names become UntitledFilename.
	MaxFilenameLength = 100
	// UntitledFilename replaces filenames that are too long.
	UntitledFilename = "untitled"

	GifUploadFailedMessage = "something went wrong uploading gif"
	GifUploadEmptyMessage  = "something went really wrong uploading gif"
)

// TextStoryInput is the body of a new text story.
type TextStoryInput struct {
	Text                  string
	ProgrammingLanguageID *string
	Filename              string
	RecordingSteps        models.RecordingSteps
}

// GifStoryInput is the body of a new gif story. Token is the credential
// returned by the upload pipeline.
type GifStoryInput struct {
	Token                 string
	ProgrammingLanguageID *string
}

// CredentialVerifier checks an upload token and returns what it vouches for.
type CredentialVerifier interface {
	Verify(token string) (*upload.Credential, error)
}

// ContentGuard normalizes creation payloads before they are persisted.
// Oversized optional fields are truncated or dropped rather than rejected.
type ContentGuard struct {
	verifier CredentialVerifier
}

func NewContentGuard(verifier CredentialVerifier) *ContentGuard {
	return &ContentGuard{verifier: verifier}
}

// GuardText returns the unsaved text story for in.
func (g *ContentGuard) GuardText(in TextStoryInput) (*models.Story, error) {
	if in.Text == "" {
		return nil, models.NewValidationError("Text is required")
	}

	filename := in.Filename
	if utf8.RuneCountInString(filename) > MaxFilenameLength {
		filename = UntitledFilename
	}

	return &models.Story{
		Kind:                  models.StoryKindText,
		Text:                  truncateRunes(in.Text, MaxTextLength),
		Filename:              filename,
		RecordingSteps:        in.RecordingSteps,
		ProgrammingLanguageID: normalizeLanguageID(in.ProgrammingLanguageID),
	}, nil
}

// GuardGIF verifies the upload credential and returns the unsaved gif story.
// Filename and flagged come only from the credential.
func (g *ContentGuard) GuardGIF(in GifStoryInput) (*models.Story, error) {
	if g.verifier == nil {
		return nil, models.NewUploadCredentialError(GifUploadFailedMessage, errors.New("no upload verifier configured"))
	}

	cred, err := g.verifier.Verify(in.Token)
	if err != nil {
		return nil, models.NewUploadCredentialError(GifUploadFailedMessage, err)
	}
	if cred.Filename == "" {
		return nil, models.NewUploadCredentialError(GifUploadEmptyMessage, nil)
	}

	return &models.Story{
		Kind:                  models.StoryKindGIF,
		MediaID:               cred.Filename,
		Flagged:               cred.Flagged,
		ProgrammingLanguageID: normalizeLanguageID(in.ProgrammingLanguageID),
	}, nil
}

// CoerceString returns v when the decoded JSON value is a string and ""
// for anything else, including a missing field.
func CoerceString(v any) string {
	s, _ := v.(string)
	return s
}

// CoerceOptionalString is CoerceString for nullable fields: non-strings become nil.
func CoerceOptionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func normalizeLanguageID(id *string) *string {
	if id == nil || utf8.RuneCountInString(*id) > MaxProgrammingLanguageIDLength {
		return nil
	}
	v := *id
	return &v
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
