package communicator

import (
	"time"

	"github.com/bilal/wifiwatch/internal/model"
)

type Kind string

const (
	KindSample  Kind = "sample"
	KindSummary Kind = "summary"
)

// Telemetry is the JSON payload sent to backend and Kafka.
type Telemetry struct {
	AgentName     string                `json:"agent_name"`
	Interface     string                `json:"interface"`
	Kind          Kind                  `json:"kind"`
	Timestamp     time.Time             `json:"timestamp"`
	Sample        *model.Sample         `json:"sample,omitempty"`
	Summary       *model.SessionSummary `json:"summary,omitempty"`
	CorrelationID string                `json:"correlation_id,omitempty"`
}
