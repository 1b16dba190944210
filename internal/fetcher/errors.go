package fetcher

import "errors"

var (
	// ErrUnavailable reports that the video metadata could not be retrieved.
	ErrUnavailable = errors.New("video unavailable")
	// ErrCantConnect reports an empty response or a stub video with a different id.
	ErrCantConnect = errors.New("cannot connect to video service")
	// ErrLiveVideo rejects live streams.
	ErrLiveVideo = errors.New("live videos are not supported")
	// ErrMissingMetadata reports a probe result without a title or author.
	ErrMissingMetadata = errors.New("missing title/author info for video")
	// ErrNoVideoFormat reports that no format carries video with a known size and height.
	ErrNoVideoFormat = errors.New("no suitable video format")
	// ErrNoAudioFormat reports that no audio-only format with a known size exists.
	ErrNoAudioFormat = errors.New("no suitable audio format")
	// ErrSoftTimeout is returned by Cancellable when its timer fires first.
	ErrSoftTimeout = errors.New("operation timed out")
)
