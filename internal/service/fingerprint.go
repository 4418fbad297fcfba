package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PDFHash fingerprints uploaded file bytes for per-user deduplication.
func PDFHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// YouTubeHash fingerprints a video per user, so two users processing the
// same video each keep their own document.
func YouTubeHash(videoID, userID string) string {
	sum := sha256.Sum256([]byte(videoID + ":" + userID))
	return hex.EncodeToString(sum[:])
}

// GitHubKey builds the stored hash for a processed repository. The timestamp
// makes every run a fresh document: repositories change between runs, so
// re-processing is intentionally never deduplicated.
func GitHubKey(owner, repo string, now time.Time) string {
	return fmt.Sprintf("github-%s-%s-%d", owner, repo, now.Unix())
}
