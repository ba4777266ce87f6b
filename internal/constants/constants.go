// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Recognition constants
const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a face
	// match to count as a recognition. Tuned for the default embedding model;
	// other models get their preset from the embedded thresholds file.
	DefaultSimilarityThreshold = 0.55

	// DefaultEmbeddingModel is the embedding model used when none is configured
	DefaultEmbeddingModel = "vggface"
)

// Frame quality constants
const (
	// MinFrameBytes is the minimum accepted size for an uploaded camera frame.
	// Anything smaller is almost certainly a truncated or corrupt capture.
	MinFrameBytes = 1000

	// MaxFrameUploadSize is the maximum multipart upload size in bytes (10MB)
	MaxFrameUploadSize = 10 << 20

	// MinFrameDimension is the minimum width/height for a usable frame
	MinFrameDimension = 100

	// MinFrameBrightness and MaxFrameBrightness bound the mean luminance
	// (0-255) outside of which face detection reliability drops sharply
	MinFrameBrightness = 30.0
	MaxFrameBrightness = 225.0

	// MinFrameBlurScore is the minimum Laplacian variance for a frame to
	// count as sharp. The conventional full-resolution cutoff is 100; the
	// quality gate measures on a 64x64 downscale, which smooths the signal,
	// so the threshold is scaled down accordingly.
	MinFrameBlurScore = 15.0
)

// Roster constants
const (
	// DefaultSnapshotPath is the default roster snapshot file
	DefaultSnapshotPath = "master_embeddings.gob"

	// DefaultDatasetPath is the default dataset directory layout: one
	// subdirectory per person, each holding face sample images
	DefaultDatasetPath = "dataset"
)

// Agent constants
const (
	// DefaultPollIntervalSec is how often the agent asks the server for
	// session status, in seconds. Frames are processed every loop
	// iteration; only the status poll is rate-limited.
	DefaultPollIntervalSec = 10

	// AgentRequestTimeoutSec bounds every agent HTTP call
	AgentRequestTimeoutSec = 5
)

// Schedule constants
const (
	// MaxMeetingNo is the highest meeting index in a semester
	MaxMeetingNo = 16
)
