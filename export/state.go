package export

// State is a step in the (strictly linear) export pipeline.
type State int

const (
	Idle State = iota
	Authorized
	ScriptInvoked
	ResultParsed
	Downloaded
	RemoteCleaned
	DirectoryReplaced
	Done
)

var states = map[State]string{
	Idle:              "idle",
	Authorized:        "authorized",
	ScriptInvoked:     "script-invoked",
	ResultParsed:      "result-parsed",
	Downloaded:        "downloaded",
	RemoteCleaned:     "remote-cleaned",
	DirectoryReplaced: "directory-replaced",
	Done:              "done",
}

func (s State) String() string {
	if v, ok := states[s]; ok {
		return v
	}

	return "unknown"
}
