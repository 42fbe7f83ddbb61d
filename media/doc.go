// Package media validates input containers and prepares audio for upload.
//
// Detect checks a file against the supported extension table and its leading
// magic bytes. Optimizer shells out to ffprobe and ffmpeg through a
// process.Runner to extract audio from video and transcode large audio down
// to mono 16 kHz MP3.
package media
