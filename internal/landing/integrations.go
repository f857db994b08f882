package landing

// Integration is one card of the landing page integrations section.
type Integration struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Section struct {
	Heading      string        `json:"heading"`
	Subheading   string        `json:"subheading"`
	Integrations []Integration `json:"integrations"`
}

var integrations = []Integration{
	{
		Icon:        "database",
		Title:       "PostgreSQL Database",
		Description: "Relational storage with idempotent migrations and unique constraints for identities and interactions",
	},
	{
		Icon:        "mail",
		Title:       "RabbitMQ Events",
		Description: "Durable sign-in and contact-view events for verification mail and downstream services",
	},
	{
		Icon:        "lock",
		Title:       "OAuth Providers",
		Description: "Google, GitHub, Discord and Twitter sign-in with PKCE and secure server-side sessions",
	},
	{
		Icon:        "zap",
		Title:       "Real-time Updates",
		Description: "Redis-backed cache invalidation keeps session and view state in sync across your app",
	},
}

// Integrations returns the integrations section in display order.
func Integrations() Section {
	out := make([]Integration, len(integrations))
	copy(out, integrations)
	return Section{
		Heading:      "Reliable Integrations",
		Subheading:   "Built with industry-standard tools and services you already know and trust.",
		Integrations: out,
	}
}
