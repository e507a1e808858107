package sandbox

import "time"

// Policy defines resource limits for sandbox execution.
type Policy struct {
	Timeout      time.Duration // Wall-clock limit per execution
	MaxCallStack int           // Maximum JavaScript call depth
	MaxLogLines  int           // Console lines kept per execution
	Image        string        // Docker image for the docker backend
	MaxMemory    string        // Docker memory limit (e.g. "256m")
	Network      bool          // Whether the container gets network access
	Images       []string      // Allowed Docker images
}

// DefaultPolicy returns safe defaults for code execution.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:      2 * time.Second,
		MaxCallStack: 1024,
		MaxLogLines:  100,
		Image:        "node:22-slim",
		MaxMemory:    "256m",
		Network:      false,
		Images: []string{
			"node:22-slim",
			"node:20-slim",
		},
	}
}

// IsImageAllowed checks if an image is on the allowlist.
func (p Policy) IsImageAllowed(image string) bool {
	for _, allowed := range p.Images {
		if allowed == image {
			return true
		}
	}
	return false
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultPolicy().Timeout
	}
	return p.Timeout
}
