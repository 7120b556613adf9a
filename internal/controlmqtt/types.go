package controlmqtt

// MQTTConf holds the broker connection settings.
type MQTTConf struct {
	ClientID string
	Schema   string
	Host     string
	Port     string
	User     string
	Password string
	Qos      byte
}

// RGB is the colour object carried in command and state payloads.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// CommandPayload is the JSON body of a set message. Absent fields keep
// their current values.
type CommandPayload struct {
	State      *string  `json:"state,omitempty"`
	Brightness *uint8   `json:"brightness,omitempty"`
	Color      *RGB     `json:"color,omitempty"`
	WhiteValue *uint8   `json:"white_value,omitempty"`
	ColorTemp  *int     `json:"color_temp,omitempty"` // mireds
	Transition *float64 `json:"transition,omitempty"` // seconds
}

// Command is one parsed control request addressed to a light.
type Command struct {
	Universe uint16
	Light    string
	Payload  CommandPayload
}

// StatePayload is the JSON body published retained on a light's state topic.
type StatePayload struct {
	State      string `json:"state"`
	Brightness uint8  `json:"brightness"`
	Color      *RGB   `json:"color,omitempty"`
	WhiteValue *uint8 `json:"white_value,omitempty"`
	ColorTemp  *int   `json:"color_temp,omitempty"`
}
