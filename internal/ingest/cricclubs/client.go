package cricclubs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the league site hosting the club's team page.
	DefaultBaseURL = "https://cricclubs.com/TDCA"

	// UserAgent identifies this service to CricClubs.
	UserAgent = "pavilion/1.0 (+https://hyderabadrebelscc.com)"

	// FetchTimeout bounds the single outbound request per sync.
	FetchTimeout = 10 * time.Second
)

// Config identifies the club on CricClubs and carries the fallback values
// used when the page omits a piece of team metadata.
type Config struct {
	BaseURL string
	TeamID  string
	ClubID  string

	TeamName           string
	LeagueName         string
	Division           string
	DefaultCaptain     string
	DefaultViceCaptain string
	DefaultPlayerCount int
}

// DefaultConfig returns the Hyderabad Rebels CC configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:            DefaultBaseURL,
		TeamID:             "4371",
		ClubID:             "1809",
		TeamName:           "Hyderabad Rebels CC",
		LeagueName:         "Toronto District Cricket Association",
		Division:           "Second Division",
		DefaultCaptain:     "Sai Krishna Tummala",
		DefaultViceCaptain: "Sandeep Goud Nimmala",
		DefaultPlayerCount: 31,
	}
}

// Client fetches the club's team page from CricClubs
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a new CricClubs client
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: FetchTimeout,
		},
	}
}

// Config returns the client's configuration
func (c *Client) Config() Config {
	return c.cfg
}

// TeamPageURL returns the URL of the club's team page
func (c *Client) TeamPageURL() string {
	return fmt.Sprintf("%s/viewTeam.do?teamId=%s&clubId=%s", c.cfg.BaseURL, c.cfg.TeamID, c.cfg.ClubID)
}

// FetchTeamPage issues a single GET for the team page and returns the raw
// HTML. A non-2xx response is a hard failure for the sync attempt.
func (c *Client) FetchTeamPage(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TeamPageURL(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching team page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code from CricClubs: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading team page: %w", err)
	}

	return string(body), nil
}
