package extService

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lastManStanding/models"
	"lastManStanding/models/external"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
)

const nflScoreboardURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"

const (
	seasonTypeRegular = 2
	seasonTypePost    = 3
	// ESPN numbers the Super Bowl as postseason week 5, after the Pro Bowl break.
	superBowlESPNWeek = 5
)

// ESPN abbreviations that differ from the catalog's.
var teamAliases = map[string]string{
	"WSH": "WAS",
}

type ESPNClient struct {
	baseURL string
}

func NewESPNClient(baseURL string) *ESPNClient {
	if baseURL == "" {
		baseURL = nflScoreboardURL
	}
	return &ESPNClient{baseURL: baseURL}
}

// GameResult is the outcome of one completed game for one team.
type GameResult struct {
	EventID      string
	Abbreviation string
	Result       models.PickResult
	Score        string
}

// SeasonWeek maps a pool week number to ESPN's season type and week.
func SeasonWeek(weekNumber uint) (seasonType int, week int) {
	switch {
	case weekNumber <= calendarService.RegularSeasonWeeks:
		return seasonTypeRegular, int(weekNumber)
	case weekNumber == calendarService.SuperBowlWeek:
		return seasonTypePost, superBowlESPNWeek
	default:
		return seasonTypePost, int(weekNumber - calendarService.RegularSeasonWeeks)
	}
}

// SeasonYear is the year the NFL season containing t started in.
func SeasonYear(t time.Time) int {
	if t.Month() < time.June {
		return t.Year() - 1
	}
	return t.Year()
}

func (c *ESPNClient) Scoreboard(ctx context.Context, week models.Week) (*external.ESPN_Scoreboard, error) {
	seasonType, espnWeek := SeasonWeek(week.Number)
	query := url.Values{}
	query.Set("dates", strconv.Itoa(SeasonYear(week.StartDate)))
	query.Set("seasontype", strconv.Itoa(seasonType))
	query.Set("week", strconv.Itoa(espnWeek))

	resp, err := common.ESPNWrapper(ctx, c.baseURL+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("error fetching scoreboard for %s: %w", week, err)
	}
	defer resp.Body.Close()

	var scoreboard external.ESPN_Scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&scoreboard); err != nil {
		return nil, fmt.Errorf("error parsing scoreboard for %s: %w", week, err)
	}
	return &scoreboard, nil
}

// DeriveResults reads win, loss and tie per team from completed games only.
func DeriveResults(scoreboard *external.ESPN_Scoreboard) []GameResult {
	var results []GameResult
	for _, event := range scoreboard.Events {
		for _, game := range event.Competitions {
			if !game.Status.Type.Completed || len(game.Competitors) != 2 {
				continue
			}

			home, away := game.Competitors[0], game.Competitors[1]
			tie := !home.Winner && !away.Winner && home.Score == away.Score
			for _, competitor := range game.Competitors {
				result := models.ResultLoss
				switch {
				case tie:
					result = models.ResultTie
				case competitor.Winner:
					result = models.ResultWin
				}
				results = append(results, GameResult{
					EventID:      event.ID,
					Abbreviation: CatalogAbbreviation(competitor.Team.Abbreviation),
					Result:       result,
					Score:        fmt.Sprintf("%s %s - %s %s", home.Team.Abbreviation, home.Score, away.Score, away.Team.Abbreviation),
				})
			}
		}
	}
	return results
}

func CatalogAbbreviation(espn string) string {
	abbr := strings.ToUpper(espn)
	if alias, ok := teamAliases[abbr]; ok {
		return alias
	}
	return abbr
}
