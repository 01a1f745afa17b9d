// Package launcher starts game instances and hands out the ports the games
// need.
package launcher

// DefaultBasePort is the first port handed out by a launcher.
const DefaultBasePort = 9168

// Rect is the window of an instance.
type Rect struct {
	X, Y, W, H int
}

// Settings configure a launcher.
type Settings struct {
	// Dir is the installation directory. It is detected when empty.
	Dir string

	// UseWine runs the game through Wine.
	UseWine bool

	// BasePort is the first port handed out.
	BasePort int32

	// Host is the address the instances listen on.
	Host string

	Window Rect
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		BasePort: DefaultBasePort,
		Host:     "127.0.0.1",
		Window:   Rect{X: 10, Y: 10, W: 1024, H: 768},
	}
}
