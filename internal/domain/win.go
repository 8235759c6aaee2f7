package domain

// Team is the side that wins a game
type Team string

const (
	TeamOriginals Team = "originals"
	TeamMirrors   Team = "mirrors"
)

// WinResult describes the end of a game
type WinResult struct {
	Winner  Team   `json:"winner"`
	Message string `json:"message"`
}

// EvaluateWin inspects the active participants. It returns nil while the game
// should go on.
func EvaluateWin(participants []*Participant) *WinResult {
	originals, mirrors := 0, 0
	for _, p := range participants {
		if !p.IsActive() {
			continue
		}
		if p.Role.IsMirror() {
			mirrors++
		} else {
			originals++
		}
	}

	if mirrors == 0 {
		return &WinResult{
			Winner:  TeamOriginals,
			Message: "All Mirrors have been found! Originals win!",
		}
	}

	if mirrors >= originals {
		return &WinResult{
			Winner:  TeamMirrors,
			Message: "Mirrors have taken over! Mirrors win!",
		}
	}

	return nil
}
