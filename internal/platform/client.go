package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "postpilot/configs"
)

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type UpstreamPost struct {
	ID        string `json:"id"`
	ShortCode string `json:"shortcode"`
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
}

type Client interface {
	CreatePost(ctx context.Context, accessToken, text, idempotencyKey string) (string, error)
	CreateReply(ctx context.Context, accessToken, text, inReplyToID string) (string, error)
	ResolvePermalink(ctx context.Context, accessToken, postID string) (string, error)
	DeletePost(ctx context.Context, accessToken, postID string) error
	RefreshCredential(ctx context.Context, refreshToken string) (*TokenResponse, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
	FetchLatestPost(ctx context.Context, accessToken, accountRef string) (*UpstreamPost, error)
}

type client struct {
	cfg  config.Config
	http *http.Client
}

func NewClient(cfg config.Config) Client {
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) CreatePost(ctx context.Context, accessToken, text, idempotencyKey string) (string, error) {
	body := map[string]string{"text": text}
	if idempotencyKey != "" {
		body["idempotency_key"] = idempotencyKey
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.PlatformBaseURL+"/v1/posts", accessToken, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "create post returned empty id"}
	}
	return result.ID, nil
}

func (c *client) CreateReply(ctx context.Context, accessToken, text, inReplyToID string) (string, error) {
	body := map[string]string{
		"text":        text,
		"in_reply_to": inReplyToID,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.PlatformBaseURL+"/v1/posts", accessToken, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "create reply returned empty id"}
	}
	return result.ID, nil
}

func (c *client) ResolvePermalink(ctx context.Context, accessToken, postID string) (string, error) {
	var result struct {
		Permalink string `json:"permalink"`
	}
	endpoint := fmt.Sprintf("%s/v1/posts/%s", c.cfg.PlatformBaseURL, url.PathEscape(postID))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil, &result); err != nil {
		return "", err
	}
	return result.Permalink, nil
}

func (c *client) DeletePost(ctx context.Context, accessToken, postID string) error {
	endpoint := fmt.Sprintf("%s/v1/posts/%s", c.cfg.PlatformBaseURL, url.PathEscape(postID))
	return c.doJSON(ctx, http.MethodDelete, endpoint, accessToken, nil, nil)
}

func (c *client) RefreshCredential(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PlatformTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	var tokenResponse TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: "token endpoint returned empty access token"}
	}

	return &tokenResponse, nil
}

func (c *client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, c.cfg.PlatformBaseURL+"/v1/me", accessToken, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *client) FetchLatestPost(ctx context.Context, accessToken, accountRef string) (*UpstreamPost, error) {
	var result struct {
		Posts []UpstreamPost `json:"posts"`
	}
	endpoint := fmt.Sprintf("%s/v1/accounts/%s/posts?limit=1", c.cfg.PlatformBaseURL, url.PathEscape(accountRef))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil, &result); err != nil {
		return nil, err
	}
	if len(result.Posts) == 0 {
		return nil, nil
	}
	return &result.Posts[0], nil
}

func (c *client) doJSON(ctx context.Context, method, endpoint, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
