package domain

// RegionPreset is the preset paint of one region in a colorway
type RegionPreset struct {
	Base          string   `json:"base"`
	Splatter      string   `json:"splatter,omitempty"`
	Splatter2     string   `json:"splatter2,omitempty"`
	GradientStops []string `json:"gradient,omitempty"`
}

// Colorway is a named preset combination for upper, sole and laces
type Colorway struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Upper RegionPreset `json:"upper"`
	Sole  RegionPreset `json:"sole"`
	Laces RegionPreset `json:"laces"`
}

// StaticColorways is served when the shop has no colorway metaobjects or the commerce API fails
var StaticColorways = []Colorway{
	{
		ID:    "classic-white",
		Name:  "Classic White",
		Upper: RegionPreset{Base: "#FFFFFF"},
		Sole:  RegionPreset{Base: "#FFFFFF"},
		Laces: RegionPreset{Base: "#FFFFFF"},
	},
	{
		ID:    "midnight-splatter",
		Name:  "Midnight Splatter",
		Upper: RegionPreset{Base: "#111111", Splatter: "#FFFFFF"},
		Sole:  RegionPreset{Base: "#111111"},
		Laces: RegionPreset{Base: "#FFFFFF"},
	},
	{
		ID:    "sunset-fade",
		Name:  "Sunset Fade",
		Upper: RegionPreset{Base: "#FF6B35", GradientStops: []string{"#FF6B35", "#F7C59F"}},
		Sole:  RegionPreset{Base: "#EFEFD0"},
		Laces: RegionPreset{Base: "#004E89"},
	},
	{
		ID:    "neon-drip",
		Name:  "Neon Drip",
		Upper: RegionPreset{Base: "#1A1A1A", Splatter: "#39FF14", Splatter2: "#FF10F0"},
		Sole:  RegionPreset{Base: "#39FF14"},
		Laces: RegionPreset{Base: "#1A1A1A"},
	},
}
