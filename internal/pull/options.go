package pull

import (
	"fmt"
	"time"

	"txbulk/internal/config"
	"txbulk/internal/services"
)

// Mode selects what gets downloaded.
type Mode string

const (
	ModeSource       Mode = "source"
	ModeTranslations Mode = "translations"
	ModeBoth         Mode = "both"
)

// TranslationMode maps to the tx CLI --mode flag.
type TranslationMode string

var translationModes = map[TranslationMode]bool{
	"default":             true,
	"reviewed":            true,
	"proofread":           true,
	"translator":          true,
	"untranslated":        true,
	"onlytranslated":      true,
	"onlyreviewed":        true,
	"onlyproofread":       true,
	"sourceastranslation": true,
}

// Options is the validated, immutable download policy for one run.
type Options struct {
	Mode            Mode
	TranslationMode TranslationMode
	// Languages filters translation downloads; nil means all languages.
	Languages   []string
	MinimumPerc int
	Workers     int
	// SkipOnError records individual failures and keeps going. When false,
	// the first failure aborts all unstarted work.
	SkipOnError bool
	Force       bool
	// SkipExisting skips files already present on disk. Presence only; a
	// stale partial file is never redetected. Force is the escape hatch.
	SkipExisting     bool
	PullTimeout      time.Duration
	AddRemoteTimeout time.Duration
}

// NewOptions validates a download section and returns an immutable policy.
// The worker count is clamped into [1, MaxWorkers] no matter what was
// requested; anything above the cap would trip platform rate limits.
func NewOptions(dl config.Download, languages []string) (Options, error) {
	mode := Mode(dl.Mode)
	switch mode {
	case ModeSource, ModeTranslations, ModeBoth:
	default:
		return Options{}, services.Wrap(services.ErrValidation, "pull", "options",
			fmt.Sprintf("invalid download mode %q", dl.Mode), nil)
	}

	tmode := TranslationMode(dl.TranslationMode)
	if tmode == "" {
		tmode = "default"
	}
	if !translationModes[tmode] {
		return Options{}, services.Wrap(services.ErrValidation, "pull", "options",
			fmt.Sprintf("invalid translation mode %q", dl.TranslationMode), nil)
	}

	if dl.MinimumPerc < 0 || dl.MinimumPerc > 100 {
		return Options{}, services.Wrap(services.ErrValidation, "pull", "options",
			fmt.Sprintf("minimum_perc %d outside [0,100]", dl.MinimumPerc), nil)
	}

	return Options{
		Mode:             mode,
		TranslationMode:  tmode,
		Languages:        append([]string(nil), languages...),
		MinimumPerc:      dl.MinimumPerc,
		Workers:          ClampWorkers(dl.Workers),
		SkipOnError:      dl.SkipOnError,
		Force:            dl.ForceDownload,
		SkipExisting:     dl.SkipExistingFiles,
		PullTimeout:      time.Duration(dl.PullTimeout) * time.Second,
		AddRemoteTimeout: time.Duration(dl.AddRemoteTimeout) * time.Second,
	}, nil
}

// ClampWorkers bounds a requested worker count into [1, MaxWorkers].
func ClampWorkers(requested int) int {
	if requested < 1 {
		return 1
	}
	if requested > config.MaxWorkers {
		return config.MaxWorkers
	}
	return requested
}
