// Package subsonic is a client for the Subsonic REST API (Navidrome,
// Airsonic, Gonic, ...) covering the calls this application needs: artist
// index, artist albums, album tracks, cover art, lyrics, and stream URLs.
package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonicfm/tonic/internal/catalog"
)

const (
	apiVersion     = "1.16.1"
	clientName     = "tonic"
	defaultTimeout = 30 * time.Second
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrNotFound      = errors.New("item not found on server")
	ErrServerOffline = errors.New("server is unreachable")
)

// Client talks to one Subsonic server. Safe for concurrent use.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, username, password string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// authParams builds the per-request token auth: t = md5(password + salt)
// with a fresh random salt, so the password itself never goes on the wire.
func (c *Client) authParams() url.Values {
	salt := uuid.NewString()
	token := fmt.Sprintf("%x", md5.Sum([]byte(c.password+salt)))

	params := url.Values{}
	params.Set("u", c.username)
	params.Set("t", token)
	params.Set("s", salt)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")
	return params
}

func (c *Client) endpointURL(endpoint string, extra url.Values) string {
	params := c.authParams()
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/rest/%s?%s", c.baseURL, endpoint, params.Encode())
}

// doRequest performs one API call and unwraps the subsonic-response
// envelope, mapping failed envelopes to typed errors.
func (c *Client) doRequest(ctx context.Context, endpoint string, extra url.Values) (*response, error) {
	reqURL := c.endpointURL(endpoint, extra)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("subsonic request", "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("subsonic request failed", "endpoint", endpoint, "error", err)
		return nil, ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthFailed
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Response.Status != "ok" {
		return nil, mapEnvelopeError(env.Response.Error)
	}
	return &env.Response, nil
}

func mapEnvelopeError(e *respError) error {
	if e == nil {
		return errors.New("server reported failure without detail")
	}
	switch e.Code {
	case codeWrongCredentials, codeNotAuthorized:
		return ErrAuthFailed
	case codeNotFound:
		return ErrNotFound
	}
	return fmt.Errorf("server error %d: %s", e.Code, e.Message)
}

// Ping validates connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "ping", nil)
	return err
}

// GetArtists returns the full artist index flattened into listing order.
func (c *Client) GetArtists(ctx context.Context) ([]catalog.Node, error) {
	resp, err := c.doRequest(ctx, "getArtists", nil)
	if err != nil {
		return nil, err
	}
	if resp.Artists == nil {
		return nil, errors.New("missing artists in response")
	}
	return mapArtistIndex(resp.Artists), nil
}

// GetArtist returns the artist's albums.
func (c *Client) GetArtist(ctx context.Context, id string) ([]catalog.Node, error) {
	params := url.Values{}
	params.Set("id", id)
	resp, err := c.doRequest(ctx, "getArtist", params)
	if err != nil {
		return nil, err
	}
	if resp.Artist == nil {
		return nil, errors.New("missing artist in response")
	}
	return mapAlbums(resp.Artist.Album), nil
}

// GetAlbum returns the album's tracks.
func (c *Client) GetAlbum(ctx context.Context, id string) ([]catalog.Node, error) {
	params := url.Values{}
	params.Set("id", id)
	resp, err := c.doRequest(ctx, "getAlbum", params)
	if err != nil {
		return nil, err
	}
	if resp.Album == nil {
		return nil, errors.New("missing album in response")
	}
	return mapSongs(resp.Album.Song), nil
}

// ListChildren dispatches to the right listing call for a node kind; the
// root pseudo-node lists the artist index.
func (c *Client) ListChildren(ctx context.Context, id string, kind catalog.Kind) ([]catalog.Node, error) {
	if id == catalog.RootID {
		return c.GetArtists(ctx)
	}
	switch kind {
	case catalog.KindArtist:
		return c.GetArtist(ctx, id)
	case catalog.KindAlbum:
		return c.GetAlbum(ctx, id)
	}
	return nil, fmt.Errorf("%s nodes have no children", kind)
}

// GetCoverArt fetches scaled cover art bytes and their content type.
func (c *Client) GetCoverArt(ctx context.Context, id string, size int) ([]byte, string, error) {
	params := url.Values{}
	params.Set("id", id)
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}
	reqURL := c.endpointURL("getCoverArt", params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	// A failed art lookup comes back as a JSON error envelope, not image data.
	if strings.Contains(contentType, "json") {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.Response.Status != "ok" {
			return nil, "", mapEnvelopeError(env.Response.Error)
		}
		return nil, "", ErrNotFound
	}
	return body, contentType, nil
}

// GetLyrics fetches lyrics by artist and title. Servers without lyrics for
// the track return an empty value rather than an error.
func (c *Client) GetLyrics(ctx context.Context, artist, title string) (string, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("title", title)
	resp, err := c.doRequest(ctx, "getLyrics", params)
	if err != nil {
		return "", err
	}
	if resp.Lyrics == nil {
		return "", nil
	}
	return resp.Lyrics.Value, nil
}

// StreamURL returns the authenticated URL the audio engine streams from.
// The client never fetches it itself.
func (c *Client) StreamURL(trackID string) string {
	params := url.Values{}
	params.Set("id", trackID)
	return c.endpointURL("stream", params)
}
