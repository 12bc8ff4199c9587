package teamService

import "lastManStanding/models"

var nflTeams = []models.Team{
	{City: "Buffalo", Name: "Bills", Abbreviation: "BUF", Conference: "AFC", Division: "East"},
	{City: "Miami", Name: "Dolphins", Abbreviation: "MIA", Conference: "AFC", Division: "East"},
	{City: "New England", Name: "Patriots", Abbreviation: "NE", Conference: "AFC", Division: "East"},
	{City: "New York", Name: "Jets", Abbreviation: "NYJ", Conference: "AFC", Division: "East"},
	{City: "Baltimore", Name: "Ravens", Abbreviation: "BAL", Conference: "AFC", Division: "North"},
	{City: "Cincinnati", Name: "Bengals", Abbreviation: "CIN", Conference: "AFC", Division: "North"},
	{City: "Cleveland", Name: "Browns", Abbreviation: "CLE", Conference: "AFC", Division: "North"},
	{City: "Pittsburgh", Name: "Steelers", Abbreviation: "PIT", Conference: "AFC", Division: "North"},
	{City: "Houston", Name: "Texans", Abbreviation: "HOU", Conference: "AFC", Division: "South"},
	{City: "Indianapolis", Name: "Colts", Abbreviation: "IND", Conference: "AFC", Division: "South"},
	{City: "Jacksonville", Name: "Jaguars", Abbreviation: "JAX", Conference: "AFC", Division: "South"},
	{City: "Tennessee", Name: "Titans", Abbreviation: "TEN", Conference: "AFC", Division: "South"},
	{City: "Denver", Name: "Broncos", Abbreviation: "DEN", Conference: "AFC", Division: "West"},
	{City: "Kansas City", Name: "Chiefs", Abbreviation: "KC", Conference: "AFC", Division: "West"},
	{City: "Las Vegas", Name: "Raiders", Abbreviation: "LV", Conference: "AFC", Division: "West"},
	{City: "Los Angeles", Name: "Chargers", Abbreviation: "LAC", Conference: "AFC", Division: "West"},
	{City: "Dallas", Name: "Cowboys", Abbreviation: "DAL", Conference: "NFC", Division: "East"},
	{City: "New York", Name: "Giants", Abbreviation: "NYG", Conference: "NFC", Division: "East"},
	{City: "Philadelphia", Name: "Eagles", Abbreviation: "PHI", Conference: "NFC", Division: "East"},
	{City: "Washington", Name: "Commanders", Abbreviation: "WAS", Conference: "NFC", Division: "East"},
	{City: "Chicago", Name: "Bears", Abbreviation: "CHI", Conference: "NFC", Division: "North"},
	{City: "Detroit", Name: "Lions", Abbreviation: "DET", Conference: "NFC", Division: "North"},
	{City: "Green Bay", Name: "Packers", Abbreviation: "GB", Conference: "NFC", Division: "North"},
	{City: "Minnesota", Name: "Vikings", Abbreviation: "MIN", Conference: "NFC", Division: "North"},
	{City: "Atlanta", Name: "Falcons", Abbreviation: "ATL", Conference: "NFC", Division: "South"},
	{City: "Carolina", Name: "Panthers", Abbreviation: "CAR", Conference: "NFC", Division: "South"},
	{City: "New Orleans", Name: "Saints", Abbreviation: "NO", Conference: "NFC", Division: "South"},
	{City: "Tampa Bay", Name: "Buccaneers", Abbreviation: "TB", Conference: "NFC", Division: "South"},
	{City: "Arizona", Name: "Cardinals", Abbreviation: "ARI", Conference: "NFC", Division: "West"},
	{City: "Los Angeles", Name: "Rams", Abbreviation: "LAR", Conference: "NFC", Division: "West"},
	{City: "San Francisco", Name: "49ers", Abbreviation: "SF", Conference: "NFC", Division: "West"},
	{City: "Seattle", Name: "Seahawks", Abbreviation: "SEA", Conference: "NFC", Division: "West"},
}
