// Package api exposes the transcription and analysis pipeline over HTTP.
//
// Routes, all under /v1:
//
//	POST   /transcriptions        multipart upload, field "file"
//	POST   /analyses              JSON {text, template, provider, model, mode}
//	GET    /providers             registered provider descriptors
//	GET    /templates             selectable analysis templates
//	GET    /cache                 cache statistics
//	DELETE /cache                 remove every cached transcript
//	DELETE /cache/:fingerprint    remove one cached transcript
//
// Errors use the errors.Response envelope with the HTTP status carried by
// the AppError.
package api
