// NeuronGate is a thin chat gateway over a hosted inference API.
//
// It fronts the model endpoint with per-session admission control:
// anonymous callers get a sliding 24-hour session, hourly and daily
// request windows, and a daily "neuron" consumption budget, all backed by
// a TTL-capable key-value store.
//
// Usage:
//
//	# Start with default configuration
//	neurongate run
//
//	# Start with a custom configuration file
//	neurongate run --config /etc/neurongate/config.yaml
//
//	# Validate a configuration file without starting
//	neurongate validate --config config.yaml
//
//	# Show version information
//	neurongate version
package main

func main() {
	Execute()
}
