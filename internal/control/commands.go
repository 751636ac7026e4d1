package control

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
)

// TargetSun is the command target switching the day simulation
const TargetSun = "sun"

// Request is a decoded command message: either a simulation switch or a
// manual actuator command
type Request struct {
	Simulation *bool
	Command    *actuator.Command
}

type sunPayload struct {
	Enabled bool `json:"enabled"`
}

type rgbPayload struct {
	Mode       actuator.Mode   `json:"mode"`
	Src        *actuator.Color `json:"src"`
	Dst        actuator.Color  `json:"dst"`
	DurationMs int64           `json:"duration_ms"`
}

type levelPayload struct {
	Mode       actuator.Mode `json:"mode"`
	Level      uint8         `json:"level"`
	DurationMs int64         `json:"duration_ms"`
}

type fanPayload struct {
	Speed     actuator.FanSpeed `json:"speed"`
	IntervalS int64             `json:"interval_s"`
	OnS       int64             `json:"on_s"`
	Repeat    bool              `json:"repeat"`
}

type humidifierPayload struct {
	On        bool  `json:"on"`
	IntervalS int64 `json:"interval_s"`
	OnS       int64 `json:"on_s"`
	Repeat    bool  `json:"repeat"`
}

// Decode parses the payload of solarium/command/{target}. Manual light
// commands without a source start from the present output.
func Decode(target string, payload []byte) (Request, error) {
	if target == TargetSun {
		var p sunPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Request{}, fmt.Errorf("invalid sun command: %w", err)
		}
		return Request{Simulation: &p.Enabled}, nil
	}

	kind, err := actuator.ParseKind(target)
	if err != nil {
		return Request{}, err
	}

	cmd := actuator.Command{Kind: kind}
	switch {
	case kind == actuator.KindRGB:
		var p rgbPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Request{}, fmt.Errorf("invalid rgb command: %w", err)
		}
		cmd.Mode = p.Mode
		cmd.Dst = actuator.Value{Color: p.Dst}
		cmd.Total = time.Duration(p.DurationMs) * time.Millisecond
		if p.Src != nil {
			cmd.Src = actuator.Value{Color: *p.Src}
		} else {
			cmd.FromCurrent = true
		}

	case kind.IsLight():
		var p levelPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Request{}, fmt.Errorf("invalid %s command: %w", kind, err)
		}
		if p.Mode != actuator.ModeSmooth && p.Mode != actuator.ModeSine && p.Mode != actuator.ModeStatic {
			return Request{}, fmt.Errorf("mode %s is not available for %s", p.Mode, kind)
		}
		cmd.Mode = p.Mode
		cmd.Dst = actuator.Value{Level: p.Level}
		cmd.Total = time.Duration(p.DurationMs) * time.Millisecond
		cmd.FromCurrent = true

	case kind == actuator.KindFan:
		var p fanPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Request{}, fmt.Errorf("invalid fan command: %w", err)
		}
		cmd.Mode = actuator.ModeDuty
		cmd.Dst = actuator.Value{Speed: p.Speed}
		cmd.Total = time.Duration(p.IntervalS) * time.Second
		cmd.OnTime = time.Duration(p.OnS) * time.Second
		cmd.Repeat = p.Repeat

	case kind == actuator.KindHumidifier:
		var p humidifierPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Request{}, fmt.Errorf("invalid humidifier command: %w", err)
		}
		cmd.Mode = actuator.ModeDuty
		cmd.Dst = actuator.Value{On: p.On}
		cmd.Total = time.Duration(p.IntervalS) * time.Second
		cmd.OnTime = time.Duration(p.OnS) * time.Second
		cmd.Repeat = p.Repeat
	}

	return Request{Command: &cmd}, nil
}
