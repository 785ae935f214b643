package round

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	tracer = otel.Tracer("round")
	meter  = otel.Meter("round")

	finishedCounter = newCounter("round.finished", "Number of finished rounds by reason")
	turnsCounter    = newCounter("round.turns", "Number of completed turns")
	timeoutsCounter = newCounter("round.timeouts", "Number of turns lost to the time limit")
)

func newCounter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return c
}
