package handlers

const (
	// Story generation can take a while on large chapter counts
	storyTimeoutSecs = 120

	// SSE keepalive interval
	sseHeartbeatSecs = 15
)
