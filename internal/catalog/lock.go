package catalog

// Locked reports whether an episode is paywalled for the current viewer.
// Episodes within the story's leading free allotment are always playable;
// everything after that requires membership in the unlocked set.
func Locked(ep Episode, freeEpisodes int, unlocked *UnlockedSet) bool {
	if ep.Sequence <= freeEpisodes {
		return false
	}
	return !unlocked.Contains(ep.ID)
}
