package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Scene constraints
	MaxNodesPerScene int
	MaxEdgesPerScene int
	DefaultSceneName string

	// Node constraints
	MaxNameLength        int
	MinNameLength        int
	MaxDescriptionLength int
	MinNodeWidth         float64
	MinNodeHeight        float64

	// Edge constraints
	MaxEdgeLabelLength int
	AllowSelfLoops     bool
	AllowDuplicateEdges bool

	// Property constraints
	MaxPropertiesPerElement int
	MaxPropertyKeyLength    int

	// Connection session
	SessionIdleTimeout time.Duration

	// Deletion
	FadeOutDuration time.Duration

	// Feature flags
	EnableRealTimeSync   bool
	EnableDeletionFade   bool
	EnableLegacyAPI      bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerScene: 5000,
		MaxEdgesPerScene: 20000,
		DefaultSceneName: "Untitled Diagram",

		MaxNameLength:        200,
		MinNameLength:        1,
		MaxDescriptionLength: 2000,
		MinNodeWidth:         40,
		MinNodeHeight:        24,

		MaxEdgeLabelLength:  200,
		AllowSelfLoops:      false,
		AllowDuplicateEdges: true,

		MaxPropertiesPerElement: 200,
		MaxPropertyKeyLength:    100,

		SessionIdleTimeout: 10 * time.Minute,

		FadeOutDuration: 200 * time.Millisecond,

		EnableRealTimeSync: true,
		EnableDeletionFade: false,
		EnableLegacyAPI:    true,
	}
}

// Validate checks configuration consistency
func (c *DomainConfig) Validate() error {
	if c.MaxNodesPerScene <= 0 {
		c.MaxNodesPerScene = 5000
	}
	if c.MaxEdgesPerScene <= 0 {
		c.MaxEdgesPerScene = 20000
	}
	if c.MinNameLength < 1 {
		c.MinNameLength = 1
	}
	if c.MaxNameLength < c.MinNameLength {
		c.MaxNameLength = c.MinNameLength
	}
	return nil
}
