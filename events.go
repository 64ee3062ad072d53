// events.go - Playback events surfaced to UI/visualization collaborators

package replay

// EventKind identifies a playback event
type EventKind int

const (
	// EventSongEnd fires when the position index passes the final order
	// entry (once per wrap when looping)
	EventSongEnd EventKind = iota
	// EventPositionChanged fires when the cursor enters a new order position
	EventPositionChanged
	// EventVoiceTriggered fires when a channel starts a new note
	EventVoiceTriggered
)

// AudioEvent is one playback event. Position is valid for
// PositionChanged; Channel and Instrument for VoiceTriggered.
type AudioEvent struct {
	Kind       EventKind
	Position   int
	Channel    int
	Instrument int
}
