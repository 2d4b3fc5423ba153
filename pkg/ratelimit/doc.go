// Package ratelimit implements a fixed-window request limiter with
// pluggable storage. The memory store suits a single process; the Redis
// store shares the window across replicas. The login route uses it to
// throttle magic-link email requests per client IP.
package ratelimit
