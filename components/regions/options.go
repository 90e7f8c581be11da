package regions

import "net/http"

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath    string
	CountryParam string
	ResponseKey  string
	Guard        GuardFunc

	Regions map[string][]string
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/regions/states",
		CountryParam: "country",
		ResponseKey:  "states",
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/regions/states"
	}
	if opts.CountryParam == "" {
		opts.CountryParam = "country"
	}
	if opts.ResponseKey == "" {
		opts.ResponseKey = "states"
	}
	if opts.Regions != nil {
		opts.Regions = copyRegions(opts.Regions)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithCountryParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CountryParam = name
	}
}

func WithResponseKey(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ResponseKey = name
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithRegions(regions map[string][]string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		if regions == nil {
			o.Regions = nil
			return
		}
		o.Regions = copyRegions(regions)
	}
}

func copyRegions(regions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(regions))
	for country, states := range regions {
		out[country] = append([]string{}, states...)
	}
	return out
}
