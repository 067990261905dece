package door

// Response messages.
const (
	MsgOpening       = "Door is opening"
	MsgAlreadyOpen   = "Door is already open"
	MsgClosing       = "Door is closing"
	MsgAlreadyClosed = "Door is already closed"
	MsgOperateSent   = "Sent operate command"
)

// Decide returns whether cmd warrants a relay pulse given the current state,
// and the message to report.
//
// CLOSE pulses only when the door is provably open; any other state,
// including a moving door, reports already closed.
func Decide(cmd Command, state State) (pulse bool, message string) {
	switch cmd {
	case CommandOpen:
		if state == StateOpen {
			return false, MsgAlreadyOpen
		}
		return true, MsgOpening
	case CommandClose:
		if state == StateOpen {
			return true, MsgClosing
		}
		return false, MsgAlreadyClosed
	case CommandOperate:
		return true, MsgOperateSent
	}
	return false, ""
}
