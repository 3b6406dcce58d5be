package constant

// Route paths served by the relay and probed by the client.
const (
	RouteDownload = "/download"
	RouteHealth   = "/health"
)

// Response metadata of a relayed video.
const (
	VideoContentType = "video/mp4"
	VideoExtension   = "mp4"
	DefaultFilename  = "video." + VideoExtension
)

// Server modes. Anything other than ModeProduction exposes error details in 500 responses.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)
