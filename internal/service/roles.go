package service

// Role display categories consumed by the front end when styling player
// badges. Unknown or absent roles map to the neutral category.
const (
	StyleBatting  = "batting"
	StyleBowling  = "bowling"
	StyleAllRound = "all-round"
	StyleKeeping  = "keeping"
	StyleNeutral  = "neutral"
)

// RoleStyle maps a role string to its presentation category
func RoleStyle(role string) string {
	switch role {
	case "Batter":
		return StyleBatting
	case "Bowler":
		return StyleBowling
	case "All Rounder":
		return StyleAllRound
	case "Wicket Keeper":
		return StyleKeeping
	}
	return StyleNeutral
}
