package config

// configBuilder builds valid Config values for tests.
type configBuilder struct {
	cfg Config
}

func newTestConfig() *configBuilder {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Upstream.BaseURL = "https://api.openai.com/v1"
	cfg.Upstream.APIKey = "test-key"
	return &configBuilder{cfg: cfg}
}

func (b *configBuilder) build() *Config {
	return &b.cfg
}

func (b *configBuilder) withListenAddress(addr string) *configBuilder {
	b.cfg.Proxy.ListenAddress = addr
	return b
}

func (b *configBuilder) withKafka(brokers ...string) *configBuilder {
	b.cfg.Audit.Kafka.Enabled = true
	b.cfg.Audit.Kafka.Brokers = brokers
	return b
}

func (b *configBuilder) withRotation(schedule string) *configBuilder {
	b.cfg.Audit.Rotation.Enabled = true
	b.cfg.Audit.Rotation.Schedule = schedule
	return b
}

func (b *configBuilder) withTracing(endpoint string) *configBuilder {
	b.cfg.Telemetry.Tracing.Enabled = true
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	return b
}
