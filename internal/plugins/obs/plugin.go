package obs

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vincent99/deckmanagerd/internal/capability"
)

// Plugin is the optional OBS Studio plugin. Disabled by default, keyed by
// "obs" for the plugin registry.
type Plugin struct {
	pool *Pool

	mu          sync.Mutex
	audioCtrls  map[audioKey]*audioController
}

// New returns a new OBS plugin instance.
func New() *Plugin {
	return &Plugin{pool: NewPool(), audioCtrls: make(map[audioKey]*audioController)}
}

func (p *Plugin) ID() string   { return "obs" }
func (p *Plugin) Name() string { return "OBS Studio" }
func (p *Plugin) Core() bool   { return false }

func (p *Plugin) ownedIDs() []capability.ID {
	return []capability.ID{
		capability.OBSScene, capability.OBSStream, capability.OBSRecord,
		capability.OBSSourceVisibility, capability.OBSAudio, capability.OBSStudioMode,
		capability.OBSReplayBuffer, capability.OBSVirtualCam, capability.OBSTransition,
	}
}

func (p *Plugin) Owns(id capability.ID) bool {
	for _, owned := range p.ownedIDs() {
		if owned == id {
			return true
		}
	}
	return false
}

func (p *Plugin) Capabilities() []capability.Descriptor {
	var out []capability.Descriptor
	owned := p.ownedIDs()
	for _, d := range capability.Descriptors() {
		for _, id := range owned {
			if d.ID == string(id) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func (p *Plugin) audioControllerFor(host string, port int, password, input string) *audioController {
	key := audioKey{host: host, port: port, password: password, input: input}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.audioCtrls[key]
	if !ok {
		c = newAudioController(p.pool)
		p.audioCtrls[key] = c
	}
	return c
}

type sceneParams struct {
	SceneName string `json:"sceneName"`
}

type sourceVisibilityParams struct {
	SceneName           string `json:"sceneName"`
	SceneItemID         int    `json:"sceneItemId"`
	SceneItemEnabled    bool   `json:"sceneItemEnabled"`
}

func (p *Plugin) ApplyButton(ctx context.Context, cap capability.Capability) error {
	cap = cap.WithOBSDefaults()
	call := func(requestType string, params any) error {
		return p.pool.Call(ctx, cap.Host, cap.Port, cap.Password, requestType, params)
	}

	switch cap.Type {
	case capability.OBSScene:
		return call("SetCurrentProgramScene", sceneParams{SceneName: cap.Scene})
	case capability.OBSStream:
		switch cap.StreamAction {
		case capability.OBSStreamStart:
			return call("StartStream", nil)
		case capability.OBSStreamStop:
			return call("StopStream", nil)
		default:
			return call("ToggleStream", nil)
		}
	case capability.OBSRecord:
		switch cap.RecordAction {
		case capability.OBSRecordStart:
			return call("StartRecord", nil)
		case capability.OBSRecordStop:
			return call("StopRecord", nil)
		case capability.OBSRecordTogglePause:
			return call("ToggleRecordPause", nil)
		default:
			return call("ToggleRecord", nil)
		}
	case capability.OBSSourceVisibility:
		// The scene item id must be resolved from (scene, source) first;
		// GetSceneItemId is a read-then-act RPC pair, same two-step shape
		// as the brightness controller's refresh-then-set.
		sceneItemID, err := p.resolveSceneItemID(ctx, cap)
		if err != nil {
			return err
		}
		return call("SetSceneItemEnabled", sourceVisibilityParams{
			SceneName: cap.Scene, SceneItemID: sceneItemID, SceneItemEnabled: true,
		})
	case capability.OBSStudioMode:
		return call("ToggleStudioMode", nil)
	case capability.OBSReplayBuffer:
		switch cap.ReplayAction {
		case capability.OBSReplayStart:
			return call("StartReplayBuffer", nil)
		case capability.OBSReplayStop:
			return call("StopReplayBuffer", nil)
		case capability.OBSReplaySave:
			return call("SaveReplayBuffer", nil)
		default:
			return call("ToggleReplayBuffer", nil)
		}
	case capability.OBSVirtualCam:
		return call("ToggleVirtualCam", nil)
	case capability.OBSTransition:
		return call("TriggerStudioModeTransition", nil)
	}
	return nil
}

func (p *Plugin) ApplyEncoder(ctx context.Context, cap capability.Capability, delta int) error {
	cap = cap.WithOBSDefaults()
	if cap.Type != capability.OBSAudio {
		return p.ApplyButton(ctx, cap)
	}
	step := cap.Step
	if step == 0 {
		step = capability.DefaultOBSAudioStep
	}
	ctrl := p.audioControllerFor(cap.Host, cap.Port, cap.Password, cap.InputName)
	return ctrl.adjust(ctx, cap.Host, cap.Port, cap.Password, cap.InputName, step*float64(delta))
}

type sceneItemIDParams struct {
	SceneName  string `json:"sceneName"`
	SourceName string `json:"sourceName"`
}

type sceneItemIDResponse struct {
	SceneItemID int `json:"sceneItemId"`
}

func (p *Plugin) resolveSceneItemID(ctx context.Context, cap capability.Capability) (int, error) {
	conn, err := p.pool.Get(ctx, cap.Host, cap.Port, cap.Password)
	if err != nil {
		return 0, err
	}
	defer p.pool.Put(cap.Host, cap.Port, cap.Password, conn)

	raw, err := conn.Request(ctx, "GetSceneItemId", sceneItemIDParams{SceneName: cap.Scene, SourceName: cap.Source})
	if err != nil {
		return 0, err
	}
	var resp sceneItemIDResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, err
	}
	return resp.SceneItemID, nil
}

// IsActive queries the relevant obs-websocket status request for cap's
// type and reports the matching boolean field, best-effort: a connection
// or parse failure is treated as inactive rather than propagated, since
// this only feeds alt-image selection.
func (p *Plugin) IsActive(cap capability.Capability) bool {
	cap = cap.WithOBSDefaults()
	ctx := context.Background()

	if cap.Type == capability.OBSScene {
		raw, err := p.pool.CallRaw(ctx, cap.Host, cap.Port, cap.Password, "GetCurrentProgramScene", nil)
		if err != nil {
			return false
		}
		var resp struct {
			SceneName string `json:"currentProgramSceneName"`
		}
		_ = json.Unmarshal(raw, &resp)
		return resp.SceneName == cap.Scene
	}

	var requestType, field string
	switch cap.Type {
	case capability.OBSStream:
		requestType, field = "GetStreamStatus", "outputActive"
	case capability.OBSRecord:
		requestType, field = "GetRecordStatus", "outputActive"
	case capability.OBSReplayBuffer:
		requestType, field = "GetReplayBufferStatus", "outputActive"
	case capability.OBSVirtualCam:
		requestType, field = "GetVirtualCamStatus", "outputActive"
	case capability.OBSStudioMode:
		requestType, field = "GetStudioModeEnabled", "studioModeEnabled"
	default:
		return false
	}

	raw, err := p.pool.CallRaw(ctx, cap.Host, cap.Port, cap.Password, requestType, nil)
	if err != nil {
		return false
	}
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false
	}
	v, _ := resp[field].(bool)
	return v
}
