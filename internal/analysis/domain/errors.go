package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id has no record in the store
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueFull is returned when the pipeline's submission queue has no capacity
	ErrQueueFull = errors.New("pipeline queue is full")
)
