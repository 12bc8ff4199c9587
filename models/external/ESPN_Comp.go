package external

type ESPN_Comp struct {
	ID          string            `json:"id"`
	UID         string            `json:"uid"`
	Date        string            `json:"date"`
	NeutralSite bool              `json:"neutralSite"`
	Competitors []ESPN_Competitor `json:"competitors"`
	Status      ESPN_Status       `json:"status"`
}

type ESPN_Competitor struct {
	ID       string    `json:"id"`
	UID      string    `json:"uid"`
	Type     string    `json:"type"`
	Order    int       `json:"order"`
	HomeAway string    `json:"homeAway"`
	Winner   bool      `json:"winner"`
	Team     ESPN_Team `json:"team"`
	Score    string    `json:"score"`
}
