package game

import "github.com/sarchlab/sc2melee/actor"

// Roles of the connections between the actors of a melee.
const (
	// RoleLauncher connects a requester to the launcher.
	RoleLauncher actor.Role = "Launcher"
	// RoleInstanceProvider connects a provider of instances to a consumer.
	RoleInstanceProvider actor.Role = "InstanceProvider"
	// RoleController connects the orchestrator to a player.
	RoleController actor.Role = "Controller"
	// RoleClient connects the user of a connection to the connection.
	RoleClient actor.Role = "Client"
	// RoleAgent connects a player to the bot it drives.
	RoleAgent actor.Role = "Agent"
)
