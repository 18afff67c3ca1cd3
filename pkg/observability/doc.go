/*
Package observability turns machine lifecycle hooks into logs and Prometheus metrics.

Both helpers return domain.Hooks, so they compose with Hooks.Merge:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
	machine := durafsm.Bind(def, store, durafsm.WithHooks(hooks))
*/
package observability
