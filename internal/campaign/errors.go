package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound         = errors.New("campaign not found")
	ErrPaused           = errors.New("campaign is paused")
	ErrLaunchInProgress = errors.New("campaign launch already in progress")
)
