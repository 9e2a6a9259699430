package core

import "strings"

// Environment is the deployment stage read from ENVIRONMENT.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction switches logging to JSON and hides debug routes' detail.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment accepts the usual short forms. Anything unknown is
// Development, so a missing variable still starts a usable local server.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
