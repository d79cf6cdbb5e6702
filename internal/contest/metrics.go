package contest

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var meter = otel.Meter(name)

var (
	submissionCounter = newCounter("contest.submissions", "Accepted submissions")
	withdrawalCounter = newCounter("contest.withdrawals", "Withdrawn submissions")
	ballotCounter     = newCounter("contest.ballots", "Ballots cast or replaced")
	transitionCounter = newCounter("contest.transitions", "Contest status transitions")
	aiJobCounter      = newCounter("contest.ai_jobs", "AI jobs handed to the pipeline")
)

//nolint:ireturn // otel instruments are interfaces.
func newCounter(counterName string, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(counterName, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
		counter, _ = noop.NewMeterProvider().Meter(name).Int64Counter(counterName)
	}
	return counter
}
