package domain

import (
	"encoding/json"
	"time"
)

// Application is a named owner of configurations. Names are unique system-wide.
type Application struct {
	ID        string
	Name      string
	Comments  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Configuration is a JSON document owned by an application. Names are unique
// per application; deleting the application cascades to its configurations.
type Configuration struct {
	ID            string
	ApplicationID string
	Name          string
	Comments      string
	Config        json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
