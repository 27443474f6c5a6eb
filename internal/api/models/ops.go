package models

// Health is the liveness response.
type Health struct {
	Status    HealthStatus `json:"status"`
	Time      Timestamp    `json:"time"`
	Version   string       `json:"version,omitempty"`
	BuildTime string       `json:"buildTime,omitempty"`
}

// Readiness is the readiness response with one entry per dependency.
type Readiness struct {
	Status HealthStatus      `json:"status"`
	Time   Timestamp         `json:"time"`
	Checks []DependencyCheck `json:"checks"`
}

// DependencyCheck is the state of one dependency.
type DependencyCheck struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}
