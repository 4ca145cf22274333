package cricclubs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// NoPhotoURL is CricClubs' stock avatar, used whenever a player has no
	// profile picture so the front end never renders a broken image.
	NoPhotoURL = "https://media.cricclubs.com/documentsRep/profilePics/default_male_profilePic.png"

	// DefaultRole labels players whose role the page does not state.
	DefaultRole = "Player"
)

// Player is a squad member as extracted from the team page
type Player struct {
	PlayerID      string
	Name          string
	Role          string
	PhotoURL      string
	JerseyNumber  int
	IsCaptain     bool
	IsViceCaptain bool
	ProfileURL    string
}

// TeamInfo is the club metadata extracted from the team page
type TeamInfo struct {
	TeamID      string
	ClubID      string
	Name        string
	LogoURL     string
	LeagueName  string
	Division    string
	Captain     string
	ViceCaptain string
	PlayerCount int
}

var (
	playerLinkPattern = regexp.MustCompile(`viewPlayer\.do\?playerId=(\d+)`)
	rolePattern       = regexp.MustCompile(`(?i)\b(all[- ]?rounder|wicket[- ]?keeper|batter|batsm[ae]n|bowler)\b`)
	viceCaptainMark   = regexp.MustCompile(`(?i)\(VC\)|vice[-\s]captain`)
	captainMark       = regexp.MustCompile(`(?i)\(C\)|\bcaptain\b`)
	jerseyPattern     = regexp.MustCompile(`#(\d{1,3})\b`)
	logoPattern       = regexp.MustCompile(`src="(https://media\.cricclubs\.com/documentsRep/teamLogos/[^"]+)"`)
	// Matches "Captain : X" and "Vice Captain : X", with or without a
	// closing </span> between the label and the value.
	captainLabelPattern = regexp.MustCompile(`(?i)(vice\s+)?captain\s*:\s*(?:</span>\s*)?([^\n<]+)`)
	countLabelPattern   = regexp.MustCompile(`(?i)player\s*count\s*:\s*(?:</span>\s*)?(\d+)`)
	whitespace          = regexp.MustCompile(`\s+`)
)

// ExtractPlayers finds every viewPlayer link in the page and resolves each
// player's attributes from the markup surrounding that link. A player can
// appear in several widgets (squad grid, batting table, bowling table);
// occurrences are merged so the result has exactly one entry per identifier.
// A page with no player links yields an empty slice, not an error.
func ExtractPlayers(html string, cfg Config) ([]Player, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	found := make(map[string]*Player)
	var order []string

	doc.Find(`a[href*="viewPlayer.do"]`).Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := playerLinkPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]

		p, ok := found[id]
		if !ok {
			p = &Player{
				PlayerID:   id,
				ProfileURL: fmt.Sprintf("%s/viewPlayer.do?playerId=%s&clubId=%s", cfg.BaseURL, id, cfg.ClubID),
			}
			found[id] = p
			order = append(order, id)
		}

		resolveFromCard(p, sel)
	})

	players := make([]Player, 0, len(order))
	for _, id := range order {
		p := found[id]
		if p.Name == "" {
			p.Name = "Player " + id
		}
		if p.Role == "" {
			p.Role = DefaultRole
		}
		if p.PhotoURL == "" {
			p.PhotoURL = NoPhotoURL
		}
		players = append(players, *p)
	}

	return players, nil
}

// resolveFromCard fills in whatever attributes the markup around one link
// occurrence provides. Earlier occurrences win; later ones only fill gaps.
func resolveFromCard(p *Player, link *goquery.Selection) {
	card := playerCard(link)
	cardText := card.Text()

	if p.Name == "" {
		p.Name = extractName(link)
	}

	if p.Role == "" {
		if m := rolePattern.FindString(cardText); m != "" {
			p.Role = canonicalRole(m)
		}
	}

	if p.PhotoURL == "" {
		p.PhotoURL = extractPhoto(link, card)
	}

	if p.JerseyNumber == 0 {
		if m := jerseyPattern.FindStringSubmatch(cardText); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				p.JerseyNumber = n
			}
		}
	}

	// Vice-captain markers contain the word "captain", so strip them before
	// testing for the captain marker.
	if viceCaptainMark.MatchString(cardText) {
		p.IsViceCaptain = true
	}
	if captainMark.MatchString(viceCaptainMark.ReplaceAllString(cardText, "")) {
		p.IsCaptain = true
	}
}

// playerCard climbs from a player link to the smallest enclosing block that
// still describes only that player. Climbing stops as soon as a parent would
// pull in a second player's link, and never crosses a table or the body, so
// a lone roster entry cannot absorb page-level prose into its card.
func playerCard(link *goquery.Selection) *goquery.Selection {
	card := link
	for i := 0; i < 4; i++ {
		parent := card.Parent()
		if parent.Length() == 0 {
			break
		}
		switch goquery.NodeName(parent) {
		case "body", "html", "table", "tbody", "thead":
			return card
		}
		if parent.Find(`a[href*="viewPlayer.do"]`).Length() > 1 {
			break
		}
		card = parent
	}
	return card
}

// extractName prefers the link's own text; image-only links fall back to
// the photo's alt text.
func extractName(link *goquery.Selection) string {
	name := cleanText(link.Text())
	if name == "" {
		name = cleanText(link.Find("img").AttrOr("alt", ""))
	}
	// Captaincy markers ride along with names in the squad grid.
	name = viceCaptainMark.ReplaceAllString(name, "")
	name = captainMark.ReplaceAllString(name, "")
	return cleanText(name)
}

// extractPhoto looks for a profile picture inside the link first, then
// anywhere in the surrounding card.
func extractPhoto(link, card *goquery.Selection) string {
	if src := link.Find(`img[src*="profilePics"]`).AttrOr("src", ""); src != "" {
		return src
	}
	return card.Find(`img[src*="profilePics"]`).AttrOr("src", "")
}

// canonicalRole maps the page's role spellings onto the four labels the
// site displays.
func canonicalRole(raw string) string {
	switch strings.ToLower(whitespace.ReplaceAllString(strings.ReplaceAll(raw, "-", " "), " ")) {
	case "all rounder", "allrounder":
		return "All Rounder"
	case "wicket keeper", "wicketkeeper":
		return "Wicket Keeper"
	case "batter", "batsman", "batsmen":
		return "Batter"
	case "bowler":
		return "Bowler"
	}
	return DefaultRole
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// ExtractTeamInfo pulls club metadata from the team page with tolerant
// pattern matches. Every field falls back to a configured default; this
// never fails on a missing label.
func ExtractTeamInfo(html string, cfg Config) TeamInfo {
	info := TeamInfo{
		TeamID:      cfg.TeamID,
		ClubID:      cfg.ClubID,
		Name:        cfg.TeamName,
		LeagueName:  cfg.LeagueName,
		Division:    cfg.Division,
		Captain:     cfg.DefaultCaptain,
		ViceCaptain: cfg.DefaultViceCaptain,
		PlayerCount: cfg.DefaultPlayerCount,
	}

	if m := logoPattern.FindStringSubmatch(html); m != nil {
		info.LogoURL = m[1]
	}

	for _, m := range captainLabelPattern.FindAllStringSubmatch(html, -1) {
		value := cleanText(m[2])
		if value == "" {
			continue
		}
		if m[1] != "" {
			info.ViceCaptain = value
		} else {
			info.Captain = value
		}
	}

	if m := countLabelPattern.FindStringSubmatch(html); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			info.PlayerCount = n
		}
	}

	return info
}
