package capability

// Parameter describes one configurable field of a capability, for display
// and validation in an external binding editor. Grounded on commands.rs's
// CapabilityParameter (name/type/default_value/description).
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default_value"`
	Description string `json:"description"`
}

// Descriptor describes one capability for the command surface's
// get_capabilities response. Grounded on commands.rs's CapabilityInfo.
type Descriptor struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	SupportsButton       bool        `json:"supports_button"`
	SupportsEncoder      bool        `json:"supports_encoder"`
	SupportsEncoderPress bool        `json:"supports_encoder_press"`
	Parameters           []Parameter `json:"parameters"`
}

// Descriptors lists every capability the daemon can bind, independent of
// which plugins are currently enabled — disabled plugins' capabilities are
// filtered out by the plugin registry before being returned over the
// command surface.
func Descriptors() []Descriptor {
	return []Descriptor{
		{ID: string(SystemAudio), Name: "System Volume", Description: "Adjust system volume with encoder rotation",
			SupportsEncoder: true,
			Parameters:      []Parameter{{"step", "f64", "0.02", "Volume change per encoder tick (0.0-1.0)"}}},
		{ID: string(Mute), Name: "Toggle Mute", Description: "Toggle system audio mute on/off",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(VolumeUp), Name: "Volume Up", Description: "Increase system volume by a fixed step",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"step", "f64", "0.02", "Volume change (0.0-1.0)"}}},
		{ID: string(VolumeDown), Name: "Volume Down", Description: "Decrease system volume by a fixed step",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"step", "f64", "0.02", "Volume change (0.0-1.0)"}}},
		{ID: string(Microphone), Name: "Microphone Volume", Description: "Adjust microphone level with encoder rotation",
			SupportsEncoder: true,
			Parameters:      []Parameter{{"step", "f64", "0.02", "Level change per encoder tick (0.0-1.0)"}}},
		{ID: string(MicMute), Name: "Toggle Mic Mute", Description: "Toggle microphone mute on/off",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(MicVolumeUp), Name: "Mic Volume Up", Description: "Increase microphone level",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(MicVolumeDown), Name: "Mic Volume Down", Description: "Decrease microphone level",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(MediaPlayPause), Name: "Play/Pause", Description: "Toggle media playback",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(MediaNext), Name: "Next Track", Description: "Skip to next track",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(MediaPrevious), Name: "Previous Track", Description: "Go to previous track",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(MediaStop), Name: "Stop", Description: "Stop media playback",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(RunCommand), Name: "Run Command", Description: "Execute a shell command",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"command", "string", "", "Shell command to execute"}}},
		{ID: string(LaunchApp), Name: "Launch App", Description: "Launch an application",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"command", "string", "", "Application to launch (e.g. firefox, code)"}}},
		{ID: string(OpenURL), Name: "Open URL", Description: "Open a URL in the default browser",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"url", "string", "https://", "URL to open"}}},
		{ID: string(ElgatoKeyLight), Name: "Key Light", Description: "Control an Elgato Key Light over the network",
			SupportsButton: true, SupportsEncoder: true, SupportsEncoderPress: true,
			Parameters: []Parameter{
				{"ip", "string", "", "Key Light IP address"},
				{"action", "string", "Toggle", "Toggle | On | Off | SetBrightness"},
			}},
		{ID: string(OBSScene), Name: "OBS Scene", Description: "Switch to an OBS scene",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"scene", "string", "", "Scene name"}}},
		{ID: string(OBSStream), Name: "OBS Streaming", Description: "Start, stop, or toggle the OBS stream",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"stream_action", "string", "Toggle", "Toggle | Start | Stop"}}},
		{ID: string(OBSRecord), Name: "OBS Recording", Description: "Start, stop, toggle, or pause OBS recording",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"record_action", "string", "Toggle", "Toggle | Start | Stop | TogglePause"}}},
		{ID: string(OBSSourceVisibility), Name: "OBS Source Visibility", Description: "Toggle a source's visibility in a scene",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"scene", "string", "", "Scene name"}, {"source", "string", "", "Source name"}}},
		{ID: string(OBSAudio), Name: "OBS Input Volume", Description: "Adjust an OBS audio input's volume with encoder rotation",
			SupportsEncoder: true,
			Parameters:      []Parameter{{"input_name", "string", "", "OBS audio input name"}, {"step", "f64", "0.02", "Volume change per encoder tick"}}},
		{ID: string(OBSStudioMode), Name: "OBS Studio Mode", Description: "Toggle OBS studio mode",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(OBSReplayBuffer), Name: "OBS Replay Buffer", Description: "Start, stop, save, or toggle the replay buffer",
			SupportsButton: true, SupportsEncoderPress: true,
			Parameters: []Parameter{{"replay_action", "string", "Toggle", "Toggle | Start | Stop | Save"}}},
		{ID: string(OBSVirtualCam), Name: "OBS Virtual Camera", Description: "Toggle the OBS virtual camera",
			SupportsButton: true, SupportsEncoderPress: true},
		{ID: string(OBSTransition), Name: "OBS Transition", Description: "Trigger the current OBS scene transition",
			SupportsButton: true, SupportsEncoderPress: true},
	}
}
