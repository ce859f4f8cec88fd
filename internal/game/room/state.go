package room

// RoomState 房间状态
type RoomState int

const (
	StateLobby RoomState = iota
	StateCountdown
	StateRunning
	StateEnded
)

var stateNames = [...]string{"LOBBY", "COUNTDOWN", "RUNNING", "ENDED"}

func (s RoomState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}
