package viewer

import (
	"fmt"
	"strings"

	"github.com/mcu-prisar/heritage-web/internal/pkg/validator"
)

// Command names accepted by Apply
const (
	CmdRotateToggle     = "rotate_toggle"
	CmdZoomIn           = "zoom_in"
	CmdZoomOut          = "zoom_out"
	CmdResetView        = "reset_view"
	CmdFrontView        = "front_view"
	CmdSetLighting      = "set_lighting"
	CmdCycleLighting    = "cycle_lighting"
	CmdSetEnvironment   = "set_environment"
	CmdCycleEnvironment = "cycle_environment"
	CmdSetScale         = "set_scale"
	CmdToggleFullscreen = "toggle_fullscreen"
)

// Commands lists every command name in toolbar order
var Commands = []string{
	CmdRotateToggle,
	CmdZoomIn,
	CmdZoomOut,
	CmdResetView,
	CmdFrontView,
	CmdSetLighting,
	CmdCycleLighting,
	CmdSetEnvironment,
	CmdCycleEnvironment,
	CmdSetScale,
	CmdToggleFullscreen,
}

func init() {
	envs := make([]string, len(Environments))
	for i, e := range Environments {
		envs[i] = string(e)
	}
	validator.RegisterOneOf("environment", envs, "Invalid environment. Must be: "+strings.Join(envs, ", "))
	validator.RegisterOneOf("viewer_command", Commands, "Unknown viewer command")
}

// Command is one toolbar action
type Command struct {
	Command     string   `json:"command" validate:"required,viewer_command"`
	Value       *float64 `json:"value,omitempty"`
	Environment string   `json:"environment,omitempty" validate:"omitempty,environment"`
}

// Apply dispatches a command to the matching viewer method
func (v *Viewer) Apply(cmd Command) error {
	switch cmd.Command {
	case CmdRotateToggle:
		v.RotateToggle()
	case CmdZoomIn:
		v.ZoomIn()
	case CmdZoomOut:
		v.ZoomOut()
	case CmdResetView:
		v.ResetView()
	case CmdFrontView:
		v.SetFrontView()
	case CmdSetLighting:
		if cmd.Value == nil {
			return fmt.Errorf("%s: %w", cmd.Command, ErrMissingValue)
		}
		v.SetLightingIntensity(*cmd.Value)
	case CmdCycleLighting:
		v.CycleLighting()
	case CmdSetEnvironment:
		if cmd.Environment == "" {
			return fmt.Errorf("%s: %w", cmd.Command, ErrMissingValue)
		}
		return v.SetEnvironment(Environment(cmd.Environment))
	case CmdCycleEnvironment:
		v.CycleEnvironment()
	case CmdSetScale:
		if cmd.Value == nil {
			return fmt.Errorf("%s: %w", cmd.Command, ErrMissingValue)
		}
		v.SetModelScale(*cmd.Value)
	case CmdToggleFullscreen:
		v.ToggleFullscreen()
	default:
		return fmt.Errorf("%q: %w", cmd.Command, ErrUnknownCommand)
	}
	return nil
}
