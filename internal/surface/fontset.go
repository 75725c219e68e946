package surface

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/opentype"
)

// Slant selects upright or slanted glyphs.
type Slant int

const (
	SlantNormal Slant = iota
	SlantItalic
	SlantOblique
)

// Weight selects the stroke weight.
type Weight int

const (
	WeightNormal Weight = iota
	WeightBold
)

// Built-in families.
const (
	FamilyGo          = "Go"
	FamilyGoMono      = "Go Mono"
	FamilyGoMedium    = "Go Medium"
	FamilyGoSmallcaps = "Go Smallcaps"
)

// styles indexes TTF data by [bold][slanted].
type styles [2][2][]byte

var families = map[string]styles{
	FamilyGo: {
		{goregular.TTF, goitalic.TTF},
		{gobold.TTF, gobolditalic.TTF},
	},
	FamilyGoMono: {
		{gomono.TTF, gomonoitalic.TTF},
		{gomonobold.TTF, gomonobolditalic.TTF},
	},
	FamilyGoMedium: {
		{gomedium.TTF, gomediumitalic.TTF},
		{gobold.TTF, gobolditalic.TTF},
	},
	FamilyGoSmallcaps: {
		{gosmallcaps.TTF, gosmallcapsitalic.TTF},
		{gosmallcaps.TTF, gosmallcapsitalic.TTF},
	},
}

var aliases = map[string]string{
	"go":           FamilyGo,
	"sans":         FamilyGo,
	"sans-serif":   FamilyGo,
	"serif":        FamilyGo,
	"go mono":      FamilyGoMono,
	"mono":         FamilyGoMono,
	"monospace":    FamilyGoMono,
	"go medium":    FamilyGoMedium,
	"go smallcaps": FamilyGoSmallcaps,
	"smallcaps":    FamilyGoSmallcaps,
}

// CanonicalFamily maps a requested family name to a built-in family.
// Unknown names fall back to FamilyGo, the way fontconfig substitutes a
// default face.
func CanonicalFamily(name string) (family string, exact bool) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, true
	}
	return FamilyGo, false
}

type faceKey struct {
	family string
	bold   bool
	slant  bool
	size   float64
}

type fontKey struct {
	family string
	bold   bool
	slant  bool
}

// FontSet parses fonts lazily and caches faces per family, style and size.
type FontSet struct {
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

func NewFontSet() *FontSet {
	return &FontSet{
		fonts: make(map[fontKey]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Face returns the face for the given selection.
func (fs *FontSet) Face(family string, slant Slant, weight Weight, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	canon, _ := CanonicalFamily(family)
	fk := fontKey{family: canon, bold: weight == WeightBold, slant: slant != SlantNormal}
	key := faceKey{family: fk.family, bold: fk.bold, slant: fk.slant, size: size}
	if face, ok := fs.faces[key]; ok {
		return face, nil
	}

	f, ok := fs.fonts[fk]
	if !ok {
		data := families[canon][boolIndex(fk.bold)][boolIndex(fk.slant)]
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %q: %w", canon, err)
		}
		fs.fonts[fk] = parsed
		f = parsed
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face %q at %v: %w", canon, size, err)
	}
	fs.faces[key] = face
	return face, nil
}

// Close releases every cached face.
func (fs *FontSet) Close() error {
	var errs []error
	for key, face := range fs.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(fs.faces, key)
	}
	return errors.Join(errs...)
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
