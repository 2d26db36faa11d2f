// pkg/core/city.go
package core

// Importance is a city's tier; it drives marker size.
type Importance string

const (
	ImportanceMajor     Importance = "major"
	ImportanceStrategic Importance = "strategic"
	ImportanceRegional  Importance = "regional"
	ImportanceOther     Importance = "other"
)

// City is a settlement marker. Captured and CaptureDate are the base values;
// the displayed capture state is recomputed per phase.
type City struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Position     LatLng     `json:"position" yaml:"position"`
	Importance   Importance `json:"importance" yaml:"importance"`
	Captured     bool       `json:"captured" yaml:"captured"`
	CaptureDate  string     `json:"capture_date,omitempty" yaml:"capture_date"`
	Population   string     `json:"population,omitempty" yaml:"population"`
	Description  string     `json:"description,omitempty" yaml:"description"`
	Significance string     `json:"significance,omitempty" yaml:"significance"`
}

// RiverType tags a river record. Only estuaries are rendered.
type RiverType string

const (
	RiverEstuary RiverType = "estuary"
	RiverLine    RiverType = "river_line"
)

// River is a river annotation. Estuaries carry a single point, river lines a path.
type River struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Type        RiverType `json:"type" yaml:"type"`
	Position    LatLng    `json:"position" yaml:"position"`
	Path        Polyline  `json:"path,omitempty" yaml:"path"`
	Description string    `json:"description,omitempty" yaml:"description"`
}

// GalleryImage is a photo shown in the gallery overlay.
type GalleryImage struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Caption string `json:"caption,omitempty" yaml:"caption"`
}
