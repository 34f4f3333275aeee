// Package devices holds a small static catalog of e-ink panel models,
// enough to exercise the GET /api/devices contract without building a
// real device-registry system (out of scope).
package devices

// Device describes one known e-ink panel model.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Palette    string `json:"palette"`
	ColorDepth int    `json:"colorDepth"`
}

var catalog = []Device{
	{ID: "waveshare-7in5-v2", Name: "Waveshare 7.5\" V2", Width: 800, Height: 480, Palette: "bw", ColorDepth: 1},
	{ID: "waveshare-7in5-b", Name: "Waveshare 7.5\" B (3-color)", Width: 800, Height: 480, Palette: "color-6a", ColorDepth: 3},
	{ID: "waveshare-5in65-f", Name: "Waveshare 5.65\" F (7-color)", Width: 600, Height: 448, Palette: "color-7a", ColorDepth: 7},
	{ID: "inky-impression-7", Name: "Pimoroni Inky Impression 7.3\"", Width: 800, Height: 480, Palette: "color-7a", ColorDepth: 7},
	{ID: "kindle-paperwhite", Name: "Kindle Paperwhite (jailbroken)", Width: 758, Height: 1024, Palette: "gray-16", ColorDepth: 4},
}

// Catalog returns the known device list.
func Catalog() []Device {
	out := make([]Device, len(catalog))
	copy(out, catalog)
	return out
}
