package model

import "time"

// Platform is an external advertising platform a credential can target.
// Description is markdown.
type Platform struct {
	ID               string
	DisplayName      string
	Description      string
	LogoURL          string
	DocumentationURL string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PlatformNewsBreak is the id of the seeded NewsBreak platform.
const PlatformNewsBreak = "newsbreak"
