package status

// Message types for the status feed.
const (
	TypeSnapshot             = "snapshot"
	TypeViewers              = "viewers"
	TypeOperatorConnected    = "operator-connected"
	TypeOperatorDisconnected = "operator-disconnected"
	TypeCommand              = "command"
	TypeCamera               = "camera"
	TypeHardware             = "hardware"
)

// Camera states.
const (
	CameraOK     = "ok"
	CameraFailed = "failed"
)

// Snapshot is the host state carried by every status message.
type Snapshot struct {
	Camera       string `json:"camera"`
	Viewers      int    `json:"viewers"`
	Operator     string `json:"operator,omitempty"`
	OperatorAddr string `json:"operatorAddr,omitempty"`
	Hardware     bool   `json:"hardware"`
	HardwarePort string `json:"hardwarePort,omitempty"`
	LastCommand  string `json:"lastCommand,omitempty"`
}

// Message is the envelope for all status messages.
type Message struct {
	Type      string   `json:"type"`
	State     Snapshot `json:"state"`
	Detail    string   `json:"detail,omitempty"`
	Timestamp int64    `json:"timestamp"`
}
