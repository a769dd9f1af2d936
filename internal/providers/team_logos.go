package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const logoCacheTTL = 12 * time.Hour

// LogoResolver resolves team logo URLs. NFL/NBA logos are plain URL
// construction from the team abbreviation; soccer logos require looking up
// ESPN's numeric team id per league, so the per-league index is cached
// in-process with a 12h expiry.
type LogoResolver struct {
	client  *http.Client
	logger  *logrus.Logger
	baseURL string
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]*leagueLogoIndex
}

type leagueLogoIndex struct {
	fetchedAt time.Time
	byAbbr    map[string]string
	byName    map[string]string
}

type teamEntry struct {
	ID   string
	Abbr string
	Name string
}

// NewLogoResolver creates a resolver against the ESPN site API. The clock is
// injectable so cache expiry is testable.
func NewLogoResolver(logger *logrus.Logger, now func() time.Time) *LogoResolver {
	if now == nil {
		now = time.Now
	}
	return &LogoResolver{
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		baseURL: "https://site.api.espn.com/apis/site/v2/sports",
		now:     now,
		cache:   make(map[string]*leagueLogoIndex),
	}
}

// TeamLogoURL returns the CDN logo URL for an NFL or NBA team abbreviation.
// Pure string construction, empty when the abbreviation is blank.
func TeamLogoURL(league, abbr string) string {
	a := strings.ToLower(strings.TrimSpace(abbr))
	if a == "" {
		return ""
	}
	switch league {
	case "nfl", "nba":
		return fmt.Sprintf(
			"https://a.espncdn.com/combiner/i?img=/i/teamlogos/%s/500/%s.png&w=80&h=80&scale=crop",
			league, url.QueryEscape(a))
	}
	return ""
}

// SoccerLogoURL resolves a soccer team's logo by abbreviation or name within
// a league. Failures resolve to an empty URL so callers can fail soft.
func (r *LogoResolver) SoccerLogoURL(ctx context.Context, league, abbr, name string) string {
	if league == "" {
		return ""
	}

	idx, err := r.leagueIndex(ctx, league)
	if err != nil {
		r.logger.WithError(err).WithField("league", league).Warn("Soccer logo lookup failed")
		return ""
	}

	var id string
	if abbr != "" {
		id = idx.byAbbr[strings.ToUpper(abbr)]
	}
	if id == "" && name != "" {
		id = idx.byName[normalizeTeamName(name)]
	}
	if id == "" {
		return ""
	}

	return fmt.Sprintf(
		"https://a.espncdn.com/combiner/i?img=/i/teamlogos/soccer/500/%s.png&w=80&h=80&scale=crop",
		url.QueryEscape(id))
}

func (r *LogoResolver) leagueIndex(ctx context.Context, league string) (*leagueLogoIndex, error) {
	r.mu.Lock()
	cached, ok := r.cache[league]
	r.mu.Unlock()
	if ok && r.now().Sub(cached.fetchedAt) < logoCacheTTL {
		return cached, nil
	}

	teams, err := r.fetchLeagueTeams(ctx, league)
	if err != nil {
		return nil, err
	}

	idx := &leagueLogoIndex{
		fetchedAt: r.now(),
		byAbbr:    make(map[string]string, len(teams)),
		byName:    make(map[string]string, len(teams)),
	}
	for _, t := range teams {
		if t.Abbr != "" {
			idx.byAbbr[strings.ToUpper(t.Abbr)] = t.ID
		}
		if t.Name != "" {
			idx.byName[normalizeTeamName(t.Name)] = t.ID
		}
	}

	r.mu.Lock()
	r.cache[league] = idx
	r.mu.Unlock()
	return idx, nil
}

func (r *LogoResolver) fetchLeagueTeams(ctx context.Context, league string) ([]teamEntry, error) {
	u := fmt.Sprintf("%s/soccer/%s/teams", r.baseURL, url.PathEscape(league))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create teams request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ESPN teams fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESPN teams fetch returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ESPN teams response: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse ESPN teams response: %w", err)
	}

	return extractTeams(payload), nil
}

// extractTeams walks the loosely shaped ESPN payload. Typical shape:
// sports[0].leagues[0].teams[], but older deployments nest differently.
func extractTeams(payload map[string]any) []teamEntry {
	teams := digSlice(payload, "sports", 0, "leagues", 0, "teams")
	if teams == nil {
		teams = digSlice(payload, "leagues", 0, "teams")
	}
	if teams == nil {
		if t, ok := payload["teams"].([]any); ok {
			teams = t
		}
	}

	out := make([]teamEntry, 0, len(teams))
	for _, raw := range teams {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if inner, ok := node["team"].(map[string]any); ok {
			node = inner
		}

		entry := teamEntry{
			ID:   stringField(node, "id"),
			Abbr: stringField(node, "abbreviation", "abbr"),
			Name: stringField(node, "displayName", "name"),
		}
		if entry.ID == "" || (entry.Abbr == "" && entry.Name == "") {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func digSlice(node map[string]any, path ...any) []any {
	current := any(node)
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			current = m[key]
		case int:
			s, ok := current.([]any)
			if !ok || key >= len(s) {
				return nil
			}
			current = s[key]
		}
	}
	s, _ := current.([]any)
	return s
}

func stringField(node map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := node[k]; ok {
			switch s := v.(type) {
			case string:
				return strings.TrimSpace(s)
			case float64:
				return strings.TrimSpace(fmt.Sprintf("%.0f", s))
			}
		}
	}
	return ""
}

var teamNameNoise = regexp.MustCompile(`\b(fc|cf|sc|ac|club)\b`)
var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeTeamName(s string) string {
	out := strings.ToLower(s)
	out = teamNameNoise.ReplaceAllString(out, " ")
	out = nonAlnum.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
