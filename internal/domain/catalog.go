package domain

// Planet is an entry of the static solar system catalogue.
type Planet struct {
	Name        string  `json:"name"`
	DistanceAU  float64 `json:"distance_au"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// ISSModule describes one component of the station.
type ISSModule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// Planets returns the solar system catalogue ordered by distance from the Sun.
func Planets() []Planet {
	return []Planet{
		{Name: "Mercury", DistanceAU: 0.39, Description: "Smallest planet in the solar system.", Image: "/textures/mercury.jpg"},
		{Name: "Venus", DistanceAU: 0.723, Description: "Hottest planet due to thick atmosphere.", Image: "/textures/venus.jpg"},
		{Name: "Earth", DistanceAU: 1, Description: "Our home planet with abundant life.", Image: "/textures/earth.jpg"},
		{Name: "Mars", DistanceAU: 1.524, Description: "The red planet with the tallest volcano.", Image: "/textures/mars.jpg"},
		{Name: "Jupiter", DistanceAU: 5.203, Description: "Largest planet with a massive storm.", Image: "/textures/jupiter.jpg"},
		{Name: "Saturn", DistanceAU: 9.539, Description: "Famous for its beautiful rings.", Image: "/textures/saturn.jpg"},
		{Name: "Uranus", DistanceAU: 19.18, Description: "Rotates on its side with a unique tilt.", Image: "/textures/uranus.jpg"},
		{Name: "Neptune", DistanceAU: 30.06, Description: "Windiest planet in the solar system.", Image: "/textures/neptune.jpg"},
		{Name: "Pluto", DistanceAU: 39.5, Description: "Dwarf Planet", Image: "/textures/pluto.jpg"},
	}
}

// ISSModules returns the station component catalogue.
func ISSModules() []ISSModule {
	return []ISSModule{
		{
			Name:        "Zarya (Functional Cargo Block)",
			Description: "Launched in 1998, Zarya was the first module of the ISS, providing propulsion and power before more modules were added.",
			Image:       "/zarya.png",
			Link:        "https://www.nasa.gov/international-space-station/zarya-module/",
		},
		{
			Name:        "Unity Node",
			Description: "The Unity module connects different parts of the ISS and acts as a passage between research labs and living areas.",
			Image:       "/unity.png",
			Link:        "https://www.nasa.gov/international-space-station/unity-module/",
		},
		{
			Name:        "Destiny Laboratory",
			Description: "The primary research facility for US science experiments aboard the ISS, with workstations and controls for experiments.",
			Image:       "/destiny_laboratory.png",
			Link:        "https://www.nasa.gov/international-space-station/destiny-laboratory-module/",
		},
		{
			Name:        "External Stowage Platform-1",
			Description: "Unpressurized shelves on the outside of the station that hold spare parts, kept warm by heaters. Installed in March 2001.",
			Image:       "/esp1.png",
			Link:        "https://www.nasa.gov/international-space-station/external-stowage-platforms-1-3/",
		},
		{
			Name:        "Columbus Module",
			Description: "The European laboratory for microgravity research in life sciences and materials.",
			Image:       "/columbus.png",
			Link:        "https://www.nasa.gov/international-space-station/columbus-laboratory-module/",
		},
		{
			Name:        "Japanese Logistics Module",
			Description: "Storage for experiments, tools and supplies, attached to the top of Kibo's main pressurized section since March 2008.",
			Image:       "/japanese_logistics.png",
			Link:        "https://www.nasa.gov/international-space-station/kibo-laboratory-module/",
		},
		{
			Name:        "Canadarm2",
			Description: "A robotic arm used for docking spacecraft, moving supplies and assisting astronauts during spacewalks.",
			Image:       "/canadarm2.png",
			Link:        "https://www.nasa.gov/international-space-station/mobile-servicing-system/",
		},
		{
			Name:        "P6 (Port) Truss and Solar Arrays",
			Description: "Part of the Integrated Truss Structure, the station's backbone carrying solar panels, cooling systems and external equipment.",
			Image:       "/p6.png",
			Link:        "https://www.nasa.gov/international-space-station/integrated-truss-structure/",
		},
	}
}
