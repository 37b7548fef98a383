package signal

import (
	"github.com/nightchill/checkin-service/pkg/state"
)

// Info keys set by BuildUserContext
const (
	InfoCurrentStreak = "current_streak"
	InfoTotalCheckIns = "total_check_ins"
	InfoJourneyLevel  = "journey_level"
	InfoTotalPoints   = "total_points"
)

// BuildUserContext wraps a user state in a UserContext.
func BuildUserContext(userID string, userState *state.UserState) *UserContext {
	userContext := &UserContext{
		UserID: userID,
		State:  userState,
		Info:   make(map[string]interface{}),
	}
	if userState == nil {
		return userContext
	}

	userContext.Info[InfoCurrentStreak] = userState.CurrentStreak
	userContext.Info[InfoTotalCheckIns] = userState.TotalCheckIns
	userContext.Info[InfoJourneyLevel] = userState.JourneyLevel
	userContext.Info[InfoTotalPoints] = userState.TotalPoints

	return userContext
}
