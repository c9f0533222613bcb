package transport

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/iotlog/fleetengine/internal/transport"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
