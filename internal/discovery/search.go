package discovery

import (
	"context"
	"errors"
)

// Search runs one discovery session and blocks until it closes.
//
// Configuration, bind and join failures are returned as *SearchError. A
// cancelled ctx ends the search early and returns the devices found so far
// without error.
func Search(ctx context.Context, cfg Config, opts ...Option) ([]Device, error) {
	s, err := NewSession(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s.Wait(), nil
}

// SearchAsync starts a discovery session and returns immediately. done is
// called exactly once with the result unless an error is returned, in which
// case it is never called.
func SearchAsync(ctx context.Context, cfg Config, done func([]Device), opts ...Option) (*Session, error) {
	if done == nil {
		return nil, newInvalidConfigError("completion callback is required", errors.New("nil callback"))
	}

	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, OnComplete(done))

	s, err := NewSession(cfg, all...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
