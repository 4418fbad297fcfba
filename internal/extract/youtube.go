package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
)

const youtubeClientTimeout = 30 * time.Second

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID resolves a video id from the URL shapes YouTube hands out:
// watch, youtu.be shortlinks, embeds, and shorts. A bare 11-character id is
// accepted as-is.
func ParseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ErrMissingURL
	}

	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.ErrInvalidYouTubeURL
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); videoIDPattern.MatchString(id) {
			return id, nil
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if videoIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	}

	return "", domain.ErrInvalidYouTubeURL
}

// TranscriptClient fetches caption tracks for a video. There is no official
// transcript API; the watch page embeds a captionTracks list whose baseUrl
// serves the track as timedtext XML.
type TranscriptClient struct {
	httpClient *http.Client
	watchBase  string
}

func NewTranscriptClient() *TranscriptClient {
	return &TranscriptClient{
		httpClient: &http.Client{Timeout: youtubeClientTimeout},
		watchBase:  "https://www.youtube.com",
	}
}

// NewTranscriptClientWithBase overrides the watch-page base URL (for testing).
func NewTranscriptClientWithBase(httpClient *http.Client, base string) *TranscriptClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: youtubeClientTimeout}
	}
	return &TranscriptClient{httpClient: httpClient, watchBase: base}
}

var captionTrackPattern = regexp.MustCompile(`"captionTracks":\[\{"baseUrl":"([^"]+)"`)

type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedSegment `xml:"text"`
}

type timedSegment struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Value string `xml:",chardata"`
}

// FetchTranscript returns the video's caption text as one blob with
// segments joined by single spaces. Videos without captions resolve to
// ErrTranscriptNotFound; callers surface that as a 404, not a retry.
func (c *TranscriptClient) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	watchURL := fmt.Sprintf("%s/watch?v=%s", c.watchBase, videoID)
	page, err := c.get(ctx, watchURL)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to load watch page", err)
	}

	match := captionTrackPattern.FindSubmatch(page)
	if match == nil {
		return "", domain.ErrTranscriptNotFound
	}

	// The baseUrl sits inside a JSON string literal; undo its escapes.
	trackURL := strings.ReplaceAll(string(match[1]), `\u0026`, "&")
	trackURL = strings.ReplaceAll(trackURL, `\/`, "/")

	body, err := c.get(ctx, trackURL)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to fetch caption track", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to parse caption track", err)
	}
	if len(tt.Texts) == 0 {
		return "", domain.ErrTranscriptNotFound
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, seg := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(seg.Value))
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", domain.ErrTranscriptNotFound
	}

	return strings.Join(parts, " "), nil
}

func (c *TranscriptClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(resp.Body)
}
