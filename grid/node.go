package grid

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/HoneyDrunkStudios/gridkernel/id"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a lifecycle stage would move
// backwards. Stages only advance: Starting → Ready → Stopping → Stopped.
var ErrInvalidTransition = errors.New("lifecycle stage cannot move backwards")

// LifecycleStage is the hosting state of a node.
type LifecycleStage int

const (
	StageStarting LifecycleStage = iota
	StageReady
	StageStopping
	StageStopped
)

// String returns the string representation of the stage.
func (s LifecycleStage) String() string {
	switch s {
	case StageStarting:
		return "starting"
	case StageReady:
		return "ready"
	case StageStopping:
		return "stopping"
	case StageStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// NodeContext is the per-process identity of one running node. All fields
// except the lifecycle stage are fixed at construction; the stage is
// advanced by the hosting layer, never by application code.
type NodeContext struct {
	nodeID      id.NodeID
	version     string
	studioID    id.StudioID
	environment id.Environment
	instanceID  string
	startedAt   time.Time
	machineName string
	processID   int
	tags        map[string]string

	mu    sync.RWMutex
	stage LifecycleStage
}

// NewNodeContext builds the node identity for this process. The id
// strings arrive pre-validated from configuration; only non-emptiness is
// checked here.
func NewNodeContext(nodeID id.NodeID, version string, studioID id.StudioID, environment id.Environment, tags map[string]string) (*NodeContext, error) {
	if nodeID == "" || studioID == "" || environment == "" {
		return nil, fmt.Errorf("node identity incomplete: node=%q studio=%q environment=%q", nodeID, studioID, environment)
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	return &NodeContext{
		nodeID:      nodeID,
		version:     version,
		studioID:    studioID,
		environment: environment,
		instanceID:  uuid.NewString(),
		startedAt:   time.Now(),
		machineName: hostname,
		processID:   os.Getpid(),
		tags:        copied,
		stage:       StageStarting,
	}, nil
}

// Advance moves the lifecycle stage forward. Transitions are monotonic and
// Stopped is terminal; any backward move returns ErrInvalidTransition.
func (n *NodeContext) Advance(to LifecycleStage) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if to < n.stage {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, n.stage, to)
	}
	n.stage = to
	return nil
}

// Stage returns the current lifecycle stage.
func (n *NodeContext) Stage() LifecycleStage {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stage
}

func (n *NodeContext) NodeID() id.NodeID           { return n.nodeID }
func (n *NodeContext) Version() string             { return n.version }
func (n *NodeContext) StudioID() id.StudioID       { return n.studioID }
func (n *NodeContext) Environment() id.Environment { return n.environment }
func (n *NodeContext) InstanceID() string          { return n.instanceID }
func (n *NodeContext) StartedAt() time.Time        { return n.startedAt }
func (n *NodeContext) MachineName() string         { return n.machineName }
func (n *NodeContext) ProcessID() int              { return n.processID }

// Tag returns the value of one node tag.
func (n *NodeContext) Tag(key string) (string, bool) {
	v, ok := n.tags[key]
	return v, ok
}

// Tags returns a copy of the node tags.
func (n *NodeContext) Tags() map[string]string {
	copied := make(map[string]string, len(n.tags))
	for k, v := range n.tags {
		copied[k] = v
	}
	return copied
}
