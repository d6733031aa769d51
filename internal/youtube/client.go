// Package youtube lists recent uploads for a user's channel reference via the
// YouTube Data API, degrading to fixed placeholder data when no credential is
// configured.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

const maxResults = 10

// Video is one feed entry.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

// Client calls the video-listing API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client; an empty key yields a disabled client that
// callers should replace with MockVideos output.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API credential is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// MockVideos is the fixed placeholder feed served without an API credential.
func MockVideos() []Video {
	return []Video{
		{ID: "1", Title: "Mock Video 1", Thumbnail: "https://picsum.photos/seed/yt1/320/180", URL: "https://youtube.com"},
		{ID: "2", Title: "Mock Video 2", Thumbnail: "https://picsum.photos/seed/yt2/320/180", URL: "https://youtube.com"},
	}
}

// ListChannelVideos resolves the channel reference (full URL, channel id or
// @handle) and returns its latest uploads, newest first.
func (c *Client) ListChannelVideos(ctx context.Context, channel string) ([]Video, error) {
	channelID, err := c.resolveChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("channelId", channelID)
	params.Set("part", "snippet,id")
	params.Set("order", "date")
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("type", "video")

	var resp searchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:        item.ID.VideoID,
			Title:     item.Snippet.Title,
			Thumbnail: item.Snippet.Thumbnails.Medium.URL,
			URL:       "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return videos, nil
}

func (c *Client) resolveChannelID(ctx context.Context, channel string) (string, error) {
	channel = strings.TrimSpace(channel)
	if idx := strings.Index(channel, "channel/"); idx >= 0 {
		id := channel[idx+len("channel/"):]
		if slash := strings.Index(id, "/"); slash >= 0 {
			id = id[:slash]
		}
		return id, nil
	}
	if !strings.Contains(channel, "@") {
		return channel, nil
	}
	// Handles need a search round trip to find the channel id.
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "channel")
	params.Set("q", channel)
	params.Set("key", c.apiKey)
	var resp searchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ID.ChannelID == "" {
		return "", fmt.Errorf("channel not found for handle %q", channel)
	}
	return resp.Items[0].ID.ChannelID, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("youtube api error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID   string `json:"videoId"`
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}
