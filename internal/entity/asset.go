package entity

import (
	"fmt"
	"time"
)

type Policy string

const (
	// PolicyFit shrinks the image to fit within the tier bounds, keeping the aspect ratio.
	PolicyFit Policy = "fit"
	// PolicyForce resizes to exactly the tier bounds, distorting if needed.
	PolicyForce Policy = "force"
	// PolicyFill resizes and center-crops to exactly the tier bounds.
	PolicyFill Policy = "fill"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyFit, PolicyForce, PolicyFill:
		return true
	}
	return false
}

type Tier struct {
	Name   string `json:"name" mapstructure:"name"`
	Width  int    `json:"width" mapstructure:"width"`
	Height int    `json:"height" mapstructure:"height"`
	Policy Policy `json:"policy" mapstructure:"policy"`
	Dir    string `json:"dir" mapstructure:"dir"`
}

func (t Tier) Validate() error {
	if t.Name == "" || t.Dir == "" {
		return fmt.Errorf("%w: tier needs a name and a dir", ErrInvalidTier)
	}
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("%w: tier %q has bounds %dx%d", ErrInvalidTier, t.Name, t.Width, t.Height)
	}
	if !t.Policy.Valid() {
		return fmt.Errorf("%w: %q (tier %q)", ErrUnsupportedPolicy, t.Policy, t.Name)
	}
	return nil
}

// DefaultTiers mirrors the asset layout used by the site: small and medium
// are bounded thumbnails, large is always forced to 2400x1600.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "small", Width: 640, Height: 480, Policy: PolicyFit, Dir: "assets-small"},
		{Name: "medium", Width: 1920, Height: 1280, Policy: PolicyFit, Dir: "assets-medium"},
		{Name: "large", Width: 2400, Height: 1600, Policy: PolicyForce, Dir: "assets-large"},
	}
}

type TierOutput struct {
	Tier   string `json:"tier"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type AssetResult struct {
	Name    string       `json:"name"`
	Source  string       `json:"source"`
	Digest  string       `json:"digest,omitempty"`
	Skipped bool         `json:"skipped,omitempty"`
	Outputs []TierOutput `json:"outputs"`
}

type AssetFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type RunReport struct {
	RunID     string         `json:"run_id"`
	Started   time.Time      `json:"started"`
	Finished  time.Time      `json:"finished"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Ignored   []string       `json:"ignored,omitempty"`
	Failed    []AssetFailure `json:"failed,omitempty"`
	Results   []AssetResult  `json:"results"`
	Staged    []string       `json:"staged,omitempty"`
}

type ResizeEvent struct {
	RunID   string       `json:"run_id"`
	Name    string       `json:"name"`
	Digest  string       `json:"digest"`
	Outputs []TierOutput `json:"outputs"`
	Time    time.Time    `json:"time"`
}
