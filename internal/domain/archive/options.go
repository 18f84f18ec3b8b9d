package archive

import "time"

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for CreatedAt and export names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone CreatedAt timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithExporter enables Export.
func WithExporter(exp Exporter) Option {
	return func(s *Service) { s.exporter = exp }
}
