package addons

import (
	"errors"
	"fmt"
)

// Phase is a step of the launch sequence. A LaunchError carries the phase that was
// being entered when the launch failed.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseEngineAPIBuilt
	PhaseCacheSpawned
	PhaseEthAPIBuilt
	PhaseModulesAssembled
	PhasePreHookApplied
	PhaseServersLaunching
	PhaseHandlesAssembled
	PhasePostHookApplied
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "Init"
	case PhaseEngineAPIBuilt:
		return "EngineAPIBuilt"
	case PhaseCacheSpawned:
		return "CacheSpawned"
	case PhaseEthAPIBuilt:
		return "EthAPIBuilt"
	case PhaseModulesAssembled:
		return "ModulesAssembled"
	case PhasePreHookApplied:
		return "PreHookApplied"
	case PhaseServersLaunching:
		return "ServersLaunching"
	case PhaseHandlesAssembled:
		return "HandlesAssembled"
	case PhasePostHookApplied:
		return "PostHookApplied"
	case PhaseDone:
		return "Done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

var (
	// ErrConstruction matches launches that failed to build a handler or the state cache.
	ErrConstruction = errors.New("construction failed")
	// ErrAssembly matches launches that failed to assemble the modules.
	ErrAssembly = errors.New("module assembly failed")
	// ErrHook matches launches aborted by a hook.
	ErrHook = errors.New("hook failed")
	// ErrBind matches launches where a server failed to start.
	ErrBind = errors.New("server bind failed")
)

// kind returns the error class of a failure in p.
func (p Phase) kind() error {
	switch p {
	case PhaseModulesAssembled:
		return ErrAssembly
	case PhasePreHookApplied, PhasePostHookApplied:
		return ErrHook
	case PhaseServersLaunching, PhaseHandlesAssembled:
		return ErrBind
	default:
		return ErrConstruction
	}
}

// LaunchError reports the phase a launch failed in and the cause.
type LaunchError struct {
	Phase Phase
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch rpc add-ons: phase %s: %s: %v", e.Phase, e.Phase.kind(), e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is matches the error class of the failed phase, so errors.Is(err, ErrBind) holds for
// every failure to start a server.
func (e *LaunchError) Is(target error) bool {
	return target == e.Phase.kind()
}
