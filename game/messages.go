package game

// LaunchInstance asks the launcher to start one more game instance.
type LaunchInstance struct{}

// GetInstancePool asks the launcher for the instances it launched.
type GetInstancePool struct{}

// InstancePool lists the instances in launch order.
type InstancePool struct {
	Instances []Instance
}

// GetPortsPool asks the launcher for the game ports it reserved.
type GetPortsPool struct{}

// PortsPool lists the reserved game ports.
type PortsPool struct {
	Ports []Ports
}

// ProvideInstance hands a game instance to the consumer of instances.
type ProvideInstance struct {
	ID  InstanceID
	URL string
}

// RequestPlayerSetup asks a player how it wants to play a game.
type RequestPlayerSetup struct {
	Settings Settings
}

// PlayerSetupReply answers RequestPlayerSetup.
type PlayerSetupReply struct {
	Setup PlayerSetup
}

// Ready tells the orchestrator that the player is connected to its
// instance.
type Ready struct{}

// CreateGame asks a player to create a game on its instance.
type CreateGame struct {
	Settings Settings
	Players  []PlayerSetup
}

// GameCreated tells the orchestrator that the game exists.
type GameCreated struct{}

// GameReady asks a player to join the created game. Ports is nil when
// playing against the built-in AI.
type GameReady struct {
	Setup PlayerSetup
	Ports *Ports
}

// GameEnded tells the orchestrator that the player left the game.
type GameEnded struct{}
