package config

import (
	"os"
	"sync"
)

var (
	inContainerOnce   sync.Once
	inContainerResult bool
)

// containerMarkers are files created by the container runtimes we run under
// (Docker and Podman respectively).
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// IsRunningInContainer reports whether the process runs inside a container.
// The result is cached after the first call.
func IsRunningInContainer() bool {
	inContainerOnce.Do(func() {
		for _, marker := range containerMarkers {
			if _, err := os.Stat(marker); err == nil {
				inContainerResult = true
				return
			}
		}
	})
	return inContainerResult
}

// ResolveHostForDocker maps a loopback source database host to
// host.docker.internal when running in a container, so export-schema can
// reach a database running on the host machine.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInContainer())
}

func resolveHost(host string, inContainer bool) string {
	if !inContainer {
		return host
	}

	switch host {
	case "localhost", "127.0.0.1", "::1":
		return "host.docker.internal"
	}
	return host
}
