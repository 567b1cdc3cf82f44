package asyncq

// BatchOption configures RunAll/Map/ForEach.
type BatchOption func(*batchConfig)

type batchConfig struct {
	preserveOrder bool
	stopOnError   bool
}

func defaultBatchConfig() batchConfig {
	return batchConfig{}
}

// WithPreserveOrder requests results in submission order instead of the
// default completion order.
func WithPreserveOrder() BatchOption {
	return func(c *batchConfig) { c.preserveOrder = true }
}

// WithStopOnError cancels remaining unstarted items after the first error
// and stops submitting new ones.
func WithStopOnError() BatchOption {
	return func(c *batchConfig) { c.stopOnError = true }
}
