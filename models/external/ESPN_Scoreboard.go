package external

// ESPN_Scoreboard is the subset of the NFL scoreboard payload
// (site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard) used for final scores.
type ESPN_Scoreboard struct {
	Leagues []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
		Season       struct {
			Year      int    `json:"year"`
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
			Type      struct {
				ID   string `json:"id"`
				Type int    `json:"type"`
				Name string `json:"name"`
			} `json:"type"`
		} `json:"season"`
	} `json:"leagues"`
	Season struct {
		Type int `json:"type"`
		Year int `json:"year"`
	} `json:"season"`
	Week struct {
		Number int `json:"number"`
	} `json:"week"`
	Events []ESPN_Event `json:"events"`
}
