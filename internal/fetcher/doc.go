// Package fetcher downloads a single video into the storage tree.
//
// Pipeline.Fetch probes the video with yt-dlp, negotiates the best video and
// audio formats for the configured codec profile, downloads each stream into
// the storage tmp directory, muxes separate streams with ffmpeg using stream
// copy, verifies the result with ffprobe, moves it to
// <storage>/VIDEO_FILE/<author>/<title>.<ext>, and records the file metadata.
//
// Every external step goes through a small interface (Prober,
// StreamDownloader, Muxer, Inspector) so the queue manager tests can run the
// pipeline without network access or real binaries.
package fetcher
