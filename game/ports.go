package game

import (
	"fmt"

	"github.com/google/uuid"
)

// PortSet is the pair of ports a game instance uses to talk to the others.
type PortSet struct {
	GamePort int32
	BasePort int32
}

// Valid checks if both ports are set.
func (p PortSet) Valid() bool {
	return p.GamePort > 0 && p.BasePort > 0
}

// Ports are the ports needed to join a multiplayer game.
type Ports struct {
	SharedPort  int32
	ServerPorts PortSet
	ClientPorts []PortSet
}

// Valid checks if all the ports are set.
func (p Ports) Valid() bool {
	if p.SharedPort < 1 || !p.ServerPorts.Valid() || len(p.ClientPorts) < 1 {
		return false
	}

	for _, ps := range p.ClientPorts {
		if !ps.Valid() {
			return false
		}
	}

	return true
}

// Clone returns a deep copy.
func (p Ports) Clone() Ports {
	c := p
	c.ClientPorts = append([]PortSet(nil), p.ClientPorts...)

	return c
}

// InstanceID identifies a game instance.
type InstanceID uuid.UUID

// NewInstanceID generates a random InstanceID.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.New())
}

func (id InstanceID) String() string {
	return uuid.UUID(id).String()
}

// Instance is a launched game instance.
type Instance struct {
	ID    InstanceID
	URL   string
	Ports PortSet
}

func (i Instance) String() string {
	return fmt.Sprintf("%s@%s", i.ID, i.URL)
}
