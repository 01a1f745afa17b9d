package game

// Settings describes a game to be created.
type Settings struct {
	// Map is the path of the map, absolute or relative to the maps folder of
	// the installation.
	Map        string
	Realtime   bool
	DisableFog bool
	RandomSeed uint32
}
