package llm

import "time"

type Option func(*Options)

// Options configures a generator. Zero values leave the provider default.
type Options struct {
	APIKey          string
	Model           string
	BaseURL         string
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
	Timeout         time.Duration
}

func WithAPIKey(apiKey string) Option {
	return func(o *Options) {
		o.APIKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

func WithTemperature(t float32) Option {
	return func(o *Options) {
		o.Temperature = t
	}
}

func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

func WithTopP(p float32) Option {
	return func(o *Options) {
		o.TopP = p
	}
}

func WithMaxOutputTokens(n int) Option {
	return func(o *Options) {
		o.MaxOutputTokens = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
