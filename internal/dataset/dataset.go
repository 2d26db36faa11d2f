// Package dataset loads the static offensive dataset and indexes it.
package dataset

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/brusilov1916/brusilov-map/pkg/core"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

// File names inside a dataset directory.
const (
	MovementsFile = "movements.yaml"
	CitiesFile    = "cities.yaml"
	RiversFile    = "rivers.yaml"
	PhasesFile    = "phases.yaml"
	GalleryFile   = "gallery.yaml"
)

// ErrInvalidDataset wraps every validation failure.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is the read-only record set the map is built from.
type Dataset struct {
	Movements   []core.Movement
	FrontLines  []core.FrontLine
	FixedArrows []core.FixedArrow
	Cities      []core.City
	Rivers      []core.River
	Phases      []core.PhaseInfo
	Gallery     []core.GalleryImage

	// Version is a short content hash of the source files.
	Version string

	movements map[string]int
	cities    map[string]int
	rivers    map[string]int
}

type movementsFile struct {
	Movements   []core.Movement   `yaml:"movements"`
	FrontLines  []core.FrontLine  `yaml:"front_lines"`
	FixedArrows []core.FixedArrow `yaml:"fixed_arrows"`
}

type citiesFile struct {
	Cities []core.City `yaml:"cities"`
}

type riversFile struct {
	Rivers []core.River `yaml:"rivers"`
}

type phasesFile struct {
	Phases []core.PhaseInfo `yaml:"phases"`
}

type galleryFile struct {
	Gallery []core.GalleryImage `yaml:"gallery"`
}

// Load reads the dataset from dir, or the embedded copy when dir is empty,
// and validates it.
func Load(dir string) (*Dataset, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			return nil, fmt.Errorf("embedded dataset: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return LoadFS(fsys)
}

// LoadFS reads the dataset from fsys. movements.yaml and cities.yaml are
// required; the other files are optional.
func LoadFS(fsys fs.FS) (*Dataset, error) {
	h := sha256.New()
	ds := &Dataset{}

	var mf movementsFile
	if err := decode(fsys, MovementsFile, &mf, true, h); err != nil {
		return nil, err
	}
	ds.Movements = mf.Movements
	ds.FrontLines = mf.FrontLines
	ds.FixedArrows = mf.FixedArrows

	var cf citiesFile
	if err := decode(fsys, CitiesFile, &cf, true, h); err != nil {
		return nil, err
	}
	ds.Cities = cf.Cities

	var rf riversFile
	if err := decode(fsys, RiversFile, &rf, false, h); err != nil {
		return nil, err
	}
	ds.Rivers = rf.Rivers

	var pf phasesFile
	if err := decode(fsys, PhasesFile, &pf, false, h); err != nil {
		return nil, err
	}
	ds.Phases = pf.Phases

	var gf galleryFile
	if err := decode(fsys, GalleryFile, &gf, false, h); err != nil {
		return nil, err
	}
	ds.Gallery = gf.Gallery

	ds.Version = hex.EncodeToString(h.Sum(nil))[:12]

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	ds.index()
	return ds, nil
}

func decode(fsys fs.FS, name string, v any, required bool, h io.Writer) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	_, _ = h.Write(raw)
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (d *Dataset) index() {
	d.movements = make(map[string]int, len(d.Movements))
	for i, m := range d.Movements {
		d.movements[m.ID] = i
	}
	d.cities = make(map[string]int, len(d.Cities))
	for i, c := range d.Cities {
		d.cities[c.ID] = i
	}
	d.rivers = make(map[string]int, len(d.Rivers))
	for i, r := range d.Rivers {
		d.rivers[r.ID] = i
	}
}

// Movement returns the movement with the given id.
func (d *Dataset) Movement(id string) (core.Movement, bool) {
	i, ok := d.movements[id]
	if !ok {
		return core.Movement{}, false
	}
	return d.Movements[i], true
}

// City returns the city with the given id.
func (d *Dataset) City(id string) (core.City, bool) {
	i, ok := d.cities[id]
	if !ok {
		return core.City{}, false
	}
	return d.Cities[i], true
}

// River returns the river with the given id.
func (d *Dataset) River(id string) (core.River, bool) {
	i, ok := d.rivers[id]
	if !ok {
		return core.River{}, false
	}
	return d.Rivers[i], true
}

// Phase returns the narrative of p.
func (d *Dataset) Phase(p core.Phase) (core.PhaseInfo, bool) {
	for _, info := range d.Phases {
		if info.ID == p {
			return info, true
		}
	}
	return core.PhaseInfo{}, false
}
