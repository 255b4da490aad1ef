package profiles

import (
	"math/rand/v2"
	"runtime"
	"time"
)

// Meta is the installation wide record stored under GlobalName.
type Meta struct {
	Ver            int      `yaml:"ver"`
	Updates        bool     `yaml:"updates"`
	Created        int64    `yaml:"created"`
	ID             int64    `yaml:"id"`
	LastMsg        int      `yaml:"lastMsg"`
	SuppressUpdate bool     `yaml:"suppressUpdate"`
	FirstRun       bool     `yaml:"firstRun"`
	DefaultLang    string   `yaml:"defaultLang"`
	DisabledAddons []string `yaml:"disabledAddons"`
}

// DefaultMeta returns a fresh installation record with a random id.
func DefaultMeta(now time.Time) Meta {
	return Meta{
		Ver:            0,
		Updates:        true,
		Created:        now.Unix(),
		ID:             rand.Int64(),
		LastMsg:        -1,
		FirstRun:       true,
		DisabledAddons: []string{},
	}
}

// WindowGeometry is the main window size saved on close.
type WindowGeometry struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Profile holds the preferences of one user.
type Profile struct {
	// Key is the bcrypt hash of the profile password, empty when unset.
	Key             string          `yaml:"key"`
	MainWindowGeom  *WindowGeometry `yaml:"mainWindowGeom"`
	MainWindowState string          `yaml:"mainWindowState"`
	NumBackups      int             `yaml:"numBackups"`
	LastOptimize    int64           `yaml:"lastOptimize"`
	Lang            string          `yaml:"lang"`

	FullSearch       bool     `yaml:"fullSearch"`
	SearchHistory    []string `yaml:"searchHistory"`
	RecentColours    []string `yaml:"recentColours"`
	StripHTML        bool     `yaml:"stripHTML"`
	EditFontFamily   string   `yaml:"editFontFamily"`
	EditFontSize     int      `yaml:"editFontSize"`
	EditLineSize     int      `yaml:"editLineSize"`
	DeleteMedia      bool     `yaml:"deleteMedia"`
	PreserveKeyboard bool     `yaml:"preserveKeyboard"`

	SyncKey   string `yaml:"syncKey"`
	SyncMedia bool   `yaml:"syncMedia"`
	AutoSync  bool   `yaml:"autoSync"`
	ProxyHost string `yaml:"proxyHost"`
	ProxyPort int    `yaml:"proxyPort"`
	ProxyUser string `yaml:"proxyUser"`
	ProxyPass string `yaml:"proxyPass"`
	ProxyType int    `yaml:"proxyType"`
}

// DefaultProfile returns the preferences a new profile starts with.
func DefaultProfile(now time.Time) Profile {
	return Profile{
		NumBackups:   30,
		LastOptimize: now.Unix(),
		Lang:         "en",

		SearchHistory:    []string{},
		RecentColours:    []string{"#000000", "#0000ff"},
		StripHTML:        true,
		EditFontFamily:   platformFont(),
		EditFontSize:     12,
		EditLineSize:     20,
		PreserveKeyboard: true,

		SyncMedia: true,
		AutoSync:  true,
		ProxyPort: 8080,
		ProxyType: 3,
	}
}

func platformFont() string {
	switch runtime.GOOS {
	case "windows":
		return "Arial"
	case "darwin":
		return "Helvetica"
	default:
		return "Sans"
	}
}
